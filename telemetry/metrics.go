package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics holds instruments for compliance report runs
type RunMetrics struct {
	ResourcesDiscovered metric.Int64Counter
	FallbackInvocations metric.Int64Counter
	RegionsSkipped      metric.Int64Counter
	LookupFailures      metric.Int64Counter
	ReportRows          metric.Int64Counter
	RunDuration         metric.Float64Histogram
}

// InitRunMetrics initializes all run metric instruments
func InitRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	m := &RunMetrics{}
	var err error

	m.ResourcesDiscovered, err = meter.Int64Counter(
		"tagpatrol.resources.discovered.total",
		metric.WithDescription("Total number of noncompliant resources discovered"),
		metric.WithUnit("resources"),
	)
	if err != nil {
		return nil, err
	}

	m.FallbackInvocations, err = meter.Int64Counter(
		"tagpatrol.discovery.fallback.total",
		metric.WithDescription("Total number of fallback discovery invocations"),
		metric.WithUnit("invocations"),
	)
	if err != nil {
		return nil, err
	}

	m.RegionsSkipped, err = meter.Int64Counter(
		"tagpatrol.discovery.regions_skipped.total",
		metric.WithDescription("Total number of regions skipped during discovery"),
		metric.WithUnit("regions"),
	)
	if err != nil {
		return nil, err
	}

	m.LookupFailures, err = meter.Int64Counter(
		"tagpatrol.attribution.failures.total",
		metric.WithDescription("Total number of audit-trail lookups that degraded to the sentinel"),
		metric.WithUnit("lookups"),
	)
	if err != nil {
		return nil, err
	}

	m.ReportRows, err = meter.Int64Counter(
		"tagpatrol.report.rows.total",
		metric.WithDescription("Total number of rows written to reports"),
		metric.WithUnit("rows"),
	)
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram(
		"tagpatrol.run.duration",
		metric.WithDescription("Duration of full report runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
