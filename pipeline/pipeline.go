// Package pipeline coordinates the collect → enrich → evaluate → group →
// render → publish flow.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tagpatrol/tagpatrol/compliance"
	"github.com/tagpatrol/tagpatrol/publish"
	"github.com/tagpatrol/tagpatrol/report"
	"github.com/tagpatrol/tagpatrol/telemetry"
	"github.com/tagpatrol/tagpatrol/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Collector discovers noncompliant resources across regions
type Collector interface {
	Collect(ctx context.Context) []types.Record
}

// Resolver enriches a record with best-effort provenance
type Resolver interface {
	Resolve(ctx context.Context, record types.Record) types.Provenance
}

// Uploader deposits the rendered artifact in object storage
type Uploader interface {
	Publish(ctx context.Context, data []byte) (string, error)
}

// Config holds the pipeline's run parameters
type Config struct {
	RequiredTags []string
	Enrich       bool
	Prefix       string
	StagingDir   string
}

// Result describes one run's outcome. "No resources found" is a clean,
// distinguishable terminal state, not an error.
type Result struct {
	StartTime      time.Time     `json:"start_time"`
	Duration       time.Duration `json:"duration"`
	ResourcesFound int           `json:"resources_found"`
	RowsWritten    int           `json:"rows_written"`
	Regions        []string      `json:"regions,omitempty"`
	StagedPath     string        `json:"staged_path,omitempty"`
	Key            string        `json:"key,omitempty"`
	Uploaded       bool          `json:"uploaded"`
	NoResources    bool          `json:"no_resources"`
	Errors         []string      `json:"errors,omitempty"`
}

// Pipeline runs the single-pass report flow
type Pipeline struct {
	collector Collector
	resolver  Resolver // optional
	uploader  Uploader // optional
	grouper   *report.Grouper
	renderer  *report.Renderer
	metrics   *telemetry.RunMetrics // optional
	cfg       Config
	logger    *telemetry.Logger
	tracer    trace.Tracer
}

// New creates a pipeline around a collector
func New(collector Collector, cfg Config) *Pipeline {
	return &Pipeline{
		collector: collector,
		grouper:   report.NewGrouper(),
		renderer:  report.NewRenderer(cfg.RequiredTags, cfg.Enrich),
		cfg:       cfg,
		logger:    telemetry.NewLogger("pipeline"),
		tracer:    otel.Tracer("pipeline"),
	}
}

// WithResolver enables provenance enrichment
func (p *Pipeline) WithResolver(r Resolver) *Pipeline {
	p.resolver = r
	return p
}

// WithUploader enables artifact upload
func (p *Pipeline) WithUploader(u Uploader) *Pipeline {
	p.uploader = u
	return p
}

// WithMetrics enables run metric recording
func (p *Pipeline) WithMetrics(m *telemetry.RunMetrics) *Pipeline {
	p.metrics = m
	return p
}

// Run executes one full report pass. A failing region, record, or lookup
// never aborts the run; only render failure or upload failure surfaces as
// the run's error, and by then any staged artifact is already on disk.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "Run")
	defer span.End()

	result := &Result{StartTime: time.Now()}
	defer func() {
		result.Duration = time.Since(result.StartTime)
		if p.metrics != nil {
			p.metrics.RunDuration.Record(ctx, result.Duration.Seconds())
		}
	}()

	records := p.collector.Collect(ctx)
	result.ResourcesFound = len(records)
	if p.metrics != nil {
		p.metrics.ResourcesDiscovered.Add(ctx, int64(len(records)))
	}

	if len(records) == 0 {
		result.NoResources = true
		p.logger.WithContext(ctx).Info().Msg("no noncompliant resources found")
		return result, nil
	}

	if p.cfg.Enrich && p.resolver != nil {
		p.enrich(ctx, records)
	}

	groups := p.grouper.Group(ctx, p.evaluate(records))
	result.Regions = groups.Regions()
	result.RowsWritten = groups.Len()
	if p.metrics != nil {
		p.metrics.ReportRows.Add(ctx, int64(groups.Len()))
	}

	data, err := p.renderer.Render(groups)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, fmt.Errorf("render failed: %w", err)
	}

	p.stage(ctx, result, data)
	return p.upload(ctx, result, data)
}

// enrich resolves provenance per record; failures degrade to the sentinel
// inside the resolver and only get counted here.
func (p *Pipeline) enrich(ctx context.Context, records []types.Record) {
	for i := range records {
		records[i].Provenance = p.resolver.Resolve(ctx, records[i])
		if records[i].Provenance == types.UnknownProvenance && p.metrics != nil {
			p.metrics.LookupFailures.Add(ctx, 1)
		}
	}
}

func (p *Pipeline) evaluate(records []types.Record) []report.Finding {
	findings := make([]report.Finding, 0, len(records))
	for _, rec := range records {
		findings = append(findings, report.Finding{
			Record:  rec,
			Verdict: compliance.Evaluate(rec.Tags, p.cfg.RequiredTags),
		})
	}
	return findings
}

// stage writes the local copy; a staging failure is logged, never fatal
func (p *Pipeline) stage(ctx context.Context, result *Result, data []byte) {
	if p.cfg.StagingDir == "" {
		return
	}
	name := publish.Key(p.cfg.Prefix, result.StartTime)
	path, err := publish.Stage(p.cfg.StagingDir, name, data)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		p.logger.WithContext(ctx).Error().Err(err).Msg("failed to stage report")
		return
	}
	result.StagedPath = path
}

// upload deposits the artifact; a missing uploader only warns
func (p *Pipeline) upload(ctx context.Context, result *Result, data []byte) (*Result, error) {
	if p.uploader == nil {
		p.logger.WithContext(ctx).Warn().
			Msg("no destination bucket configured, skipping upload")
		return result, nil
	}

	key, err := p.uploader.Publish(ctx, data)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, fmt.Errorf("upload failed: %w", err)
	}

	result.Key = key
	result.Uploaded = true
	p.logger.WithContext(ctx).Info().
		Str("key", key).
		Int("resources", result.ResourcesFound).
		Strs("regions", result.Regions).
		Msg("report published")

	return result, nil
}
