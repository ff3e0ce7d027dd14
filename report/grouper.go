// Package report groups findings by region and renders them as a workbook.
package report

import (
	"context"

	"github.com/tagpatrol/tagpatrol/compliance"
	"github.com/tagpatrol/tagpatrol/telemetry"
	"github.com/tagpatrol/tagpatrol/types"
)

// Finding pairs a collected record with its tag verdict
type Finding struct {
	Record  types.Record
	Verdict compliance.TagVerdict
}

// Groups holds findings partitioned by region, preserving both the order
// regions were first seen and the collector-emitted order within each region.
type Groups struct {
	order    []string
	byRegion map[string][]Finding
}

// Regions returns region keys in first-seen order
func (g *Groups) Regions() []string {
	return g.order
}

// Findings returns the findings for one region in insertion order
func (g *Groups) Findings(region string) []Finding {
	return g.byRegion[region]
}

// Len returns the total number of grouped findings
func (g *Groups) Len() int {
	n := 0
	for _, fs := range g.byRegion {
		n += len(fs)
	}
	return n
}

// Grouper partitions findings by region
type Grouper struct {
	logger *telemetry.Logger
}

// NewGrouper creates a grouper
func NewGrouper() *Grouper {
	return &Grouper{logger: telemetry.NewLogger("grouper")}
}

// Group partitions findings by region. Findings whose region could not be
// derived are dropped and logged, never fatal.
func (g *Grouper) Group(ctx context.Context, findings []Finding) *Groups {
	groups := &Groups{byRegion: make(map[string][]Finding)}

	for _, f := range findings {
		region := f.Record.Region
		if region == "" || region == types.UnknownRegion {
			g.logger.LogRecordDropped(ctx, f.Record.ARN, "region not derivable")
			continue
		}
		if _, seen := groups.byRegion[region]; !seen {
			groups.order = append(groups.order, region)
		}
		groups.byRegion[region] = append(groups.byRegion[region], f)
	}

	return groups
}
