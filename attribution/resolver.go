// Package attribution answers "who created this resource" via CloudTrail.
package attribution

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"github.com/tagpatrol/tagpatrol/telemetry"
	"github.com/tagpatrol/tagpatrol/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// maxLookupResults is the CloudTrail maximum per request
	maxLookupResults = 50

	// defaultLookupTimeout bounds each LookupEvents call
	defaultLookupTimeout = 30 * time.Second
)

// CloudTrailAPI is the slice of the CloudTrail client the resolver needs
type CloudTrailAPI interface {
	LookupEvents(ctx context.Context, params *cloudtrail.LookupEventsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.LookupEventsOutput, error)
}

// Resolver enriches records with best-effort provenance. Lookups are bounded
// to a sliding window, attempted at most once per record, and degrade to the
// sentinel on any failure. The resolver never aborts a run.
type Resolver struct {
	client   CloudTrailAPI
	cache    *Cache // optional
	lookback time.Duration
	timeout  time.Duration
	logger   *telemetry.Logger
	tracer   trace.Tracer
}

// NewResolver creates a resolver over CloudTrail
func NewResolver(cfg aws.Config, lookback time.Duration) *Resolver {
	return &Resolver{
		client:   cloudtrail.NewFromConfig(cfg),
		lookback: lookback,
		timeout:  defaultLookupTimeout,
		logger:   telemetry.NewLogger("attribution"),
		tracer:   otel.Tracer("attribution"),
	}
}

// WithCache attaches a provenance cache
func (r *Resolver) WithCache(c *Cache) *Resolver {
	r.cache = c
	return r
}

// Resolve returns the most recent actor who touched the record's resource,
// or the sentinel when the audit trail has no answer. Never retries.
func (r *Resolver) Resolve(ctx context.Context, record types.Record) types.Provenance {
	ctx, span := r.tracer.Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("arn", record.ARN)))
	defer span.End()

	name := types.ResourceName(record.ARN)
	if name == "" {
		return types.UnknownProvenance
	}

	if r.cache != nil {
		if p, ok := r.cache.Get(name); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return p
		}
	}

	p, ok := r.lookup(ctx, name)
	if !ok {
		return types.UnknownProvenance
	}

	if r.cache != nil {
		if err := r.cache.Put(name, p); err != nil {
			r.logger.WithContext(ctx).Debug().
				Err(err).
				Str("resource_name", name).
				Msg("failed to cache provenance")
		}
	}

	return p
}

// lookup performs the single LookupEvents attempt
func (r *Resolver) lookup(ctx context.Context, name string) (types.Provenance, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	end := time.Now()
	start := end.Add(-r.lookback)

	out, err := r.client.LookupEvents(ctx, &cloudtrail.LookupEventsInput{
		LookupAttributes: []cttypes.LookupAttribute{{
			AttributeKey:   cttypes.LookupAttributeKeyResourceName,
			AttributeValue: aws.String(name),
		}},
		StartTime:  &start,
		EndTime:    &end,
		MaxResults: aws.Int32(maxLookupResults),
	})
	if err != nil {
		r.logger.LogLookupFailed(ctx, name, err)
		return types.Provenance{}, false
	}

	return mostRecent(out.Events)
}

// mostRecent picks the latest event from a lookup result
func mostRecent(events []cttypes.Event) (types.Provenance, bool) {
	var best *cttypes.Event
	for i := range events {
		e := &events[i]
		if e.EventTime == nil {
			continue
		}
		if best == nil || e.EventTime.After(*best.EventTime) {
			best = e
		}
	}
	if best == nil {
		return types.Provenance{}, false
	}

	return types.Provenance{
		Actor:     orUnknown(aws.ToString(best.Username)),
		Event:     orUnknown(aws.ToString(best.EventName)),
		EventTime: best.EventTime.UTC().Format(time.RFC3339),
	}, true
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
