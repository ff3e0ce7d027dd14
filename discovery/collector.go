package discovery

import (
	"context"
	"time"

	"github.com/tagpatrol/tagpatrol/compliance"
	"github.com/tagpatrol/tagpatrol/telemetry"
	"github.com/tagpatrol/tagpatrol/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultCallTimeout bounds each remote discovery call; the SDK alone
// imposes none.
const defaultCallTimeout = 2 * time.Minute

// Primary is a discovery source whose query language selects noncompliant
// resources server-side.
type Primary interface {
	Search(ctx context.Context, query, region string) ([]types.Record, error)
}

// Fallback enumerates all resources in a region; compliance filtering
// happens locally.
type Fallback interface {
	List(ctx context.Context, region string) ([]types.Record, error)
}

// CollectorConfig holds collection parameters
type CollectorConfig struct {
	Regions      []string
	Query        string
	RequiredTags []string
	CallTimeout  time.Duration
}

// Collector iterates discovery sources across regions and normalizes the
// results into one deduplicated record set. No region's failure aborts a run.
type Collector struct {
	primary  Primary
	fallback Fallback              // optional
	metrics  *telemetry.RunMetrics // optional
	cfg      CollectorConfig
	logger   *telemetry.Logger
	tracer   trace.Tracer
}

// NewCollector creates a collector. fallback may be nil, in which case
// regions with an unusable primary source are skipped.
func NewCollector(primary Primary, fallback Fallback, cfg CollectorConfig) *Collector {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &Collector{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		logger:   telemetry.NewLogger("collector"),
		tracer:   otel.Tracer("collector"),
	}
}

// WithMetrics enables fallback and skip counters
func (c *Collector) WithMetrics(m *telemetry.RunMetrics) *Collector {
	c.metrics = m
	return c
}

// Collect gathers noncompliant resources across all configured regions,
// deduplicated by ARN. It never fails: unusable regions are logged and
// skipped.
func (c *Collector) Collect(ctx context.Context) []types.Record {
	ctx, span := c.tracer.Start(ctx, "Collect")
	defer span.End()

	var all []types.Record
	for _, region := range c.cfg.Regions {
		all = append(all, c.collectRegion(ctx, region)...)
	}

	records := types.Dedupe(all)
	span.SetAttributes(attribute.Int("resources", len(records)))

	c.logger.WithContext(ctx).Info().
		Int("regions", len(c.cfg.Regions)).
		Int("resources", len(records)).
		Msg("collection complete")

	return records
}

// collectRegion queries one region, degrading from primary to fallback
func (c *Collector) collectRegion(ctx context.Context, region string) []types.Record {
	records, err := c.searchPrimary(ctx, region)
	if err == nil {
		if len(records) == 0 {
			c.logger.WithContext(ctx).Debug().
				Str("region", region).
				Msg("no matching resources in region")
		}
		return records
	}

	kind := ClassifyFailure(err)
	if kind == FailureTransient {
		c.skipRegion(ctx, region, kind.String(), err)
		return nil
	}

	// Missing index or permission rejection: the fallback source has
	// different semantics and may still be reachable.
	if c.fallback == nil {
		c.skipRegion(ctx, region, kind.String(), err)
		return nil
	}
	c.logger.LogFallback(ctx, region, err)
	if c.metrics != nil {
		c.metrics.FallbackInvocations.Add(ctx, 1)
	}

	all, ferr := c.listFallback(ctx, region)
	if ferr != nil {
		c.skipRegion(ctx, region, "fallback failed", ferr)
		return nil
	}

	return filterNoncompliant(all, c.cfg.RequiredTags)
}

func (c *Collector) skipRegion(ctx context.Context, region, reason string, err error) {
	c.logger.LogRegionSkipped(ctx, region, reason, err)
	if c.metrics != nil {
		c.metrics.RegionsSkipped.Add(ctx, 1)
	}
}

func (c *Collector) searchPrimary(ctx context.Context, region string) ([]types.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	return c.primary.Search(ctx, c.cfg.Query, region)
}

func (c *Collector) listFallback(ctx context.Context, region string) ([]types.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	return c.fallback.List(ctx, region)
}

// filterNoncompliant keeps records whose tag set fails the requirement
func filterNoncompliant(records []types.Record, required []string) []types.Record {
	var out []types.Record
	for _, r := range records {
		if !compliance.Evaluate(r.Tags, required).Compliant() {
			out = append(out, r)
		}
	}
	return out
}
