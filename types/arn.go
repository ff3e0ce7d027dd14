package types

import "strings"

// Sentinels for identifiers that cannot be parsed
const (
	UnknownRegion  = "unknown"
	UnknownService = "N/A"
)

// ARNLayout describes where the region and service live in a colon-delimited
// identifier. The offsets are configurable because not every discovery source
// reports the same shape.
type ARNLayout struct {
	RegionIndex  int `yaml:"region_index"`
	ServiceIndex int `yaml:"service_index"`
}

// DefaultARNLayout matches the standard AWS ARN scheme:
// arn:partition:service:region:account:resource
var DefaultARNLayout = ARNLayout{RegionIndex: 3, ServiceIndex: 2}

// Parse extracts the region and service from an identifier. Malformed input
// yields sentinels, never an error.
func (l ARNLayout) Parse(arn string) (region, service string) {
	region, service = UnknownRegion, UnknownService
	if !strings.Contains(arn, ":") {
		return region, service
	}
	fields := strings.Split(arn, ":")
	if l.RegionIndex >= 0 && l.RegionIndex < len(fields) && fields[l.RegionIndex] != "" {
		region = fields[l.RegionIndex]
	}
	if l.ServiceIndex >= 0 && l.ServiceIndex < len(fields) && fields[l.ServiceIndex] != "" {
		service = fields[l.ServiceIndex]
	}
	return region, service
}

// ResourceName derives the human-readable name used for audit-trail lookups:
// the trailing path segment, falling back to the trailing colon segment.
func ResourceName(arn string) string {
	if i := strings.LastIndex(arn, "/"); i >= 0 && i < len(arn)-1 {
		return arn[i+1:]
	}
	if i := strings.LastIndex(arn, ":"); i >= 0 && i < len(arn)-1 {
		return arn[i+1:]
	}
	return arn
}
