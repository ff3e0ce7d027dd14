package report

import (
	"fmt"
	"strings"

	"github.com/tagpatrol/tagpatrol/types"
	"github.com/xuri/excelize/v2"
)

const (
	// maxColumnWidth caps the auto-size heuristic
	maxColumnWidth = 60

	// maxSheetName is the workbook format's sheet name limit
	maxSheetName = 31
)

// baseColumns precede the per-tag verdict columns
var baseColumns = []string{"Resource ARN", "Service", "Type"}

// provenanceColumns are emitted only when enrichment ran
var provenanceColumns = []string{"Created By", "Creation Event", "Event Time"}

// Renderer turns grouped findings into a spreadsheet: one sheet per region,
// a fixed header row, one verdict column per required tag key.
type Renderer struct {
	requiredTags      []string
	includeProvenance bool
}

// NewRenderer creates a renderer for the configured tag keys
func NewRenderer(requiredTags []string, includeProvenance bool) *Renderer {
	return &Renderer{
		requiredTags:      requiredTags,
		includeProvenance: includeProvenance,
	}
}

// Header returns the fixed column order
func (r *Renderer) Header() []string {
	header := make([]string, 0, len(baseColumns)+len(provenanceColumns)+len(r.requiredTags))
	header = append(header, baseColumns...)
	if r.includeProvenance {
		header = append(header, provenanceColumns...)
	}
	return append(header, r.requiredTags...)
}

// Render serializes the groups into workbook bytes
func (r *Renderer) Render(groups *Groups) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := r.Header()
	for i, region := range groups.Regions() {
		sheet := sheetName(region)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}

		if err := r.renderSheet(f, sheet, header, groups.Findings(region)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// renderSheet writes the header, one row per finding, and sizes the columns
func (r *Renderer) renderSheet(f *excelize.File, sheet string, header []string, findings []Finding) error {
	widths := make([]int, len(header))

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
		widths[i] = len(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header on %s: %w", sheet, err)
	}

	for n, finding := range findings {
		row := r.row(finding)
		for i, cell := range row {
			if s, ok := cell.(string); ok && len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
		axis := fmt.Sprintf("A%d", n+2)
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write row on %s: %w", sheet, err)
		}
	}

	return sizeColumns(f, sheet, widths)
}

// row builds one finding's cells in header order
func (r *Renderer) row(finding Finding) []interface{} {
	rec := finding.Record
	row := []interface{}{rec.ARN, rec.Service, rec.Type}

	if r.includeProvenance {
		p := rec.Provenance
		if p.IsZero() {
			p = types.UnknownProvenance
		}
		row = append(row, p.Actor, p.Event, p.EventTime)
	}

	for _, key := range r.requiredTags {
		row = append(row, string(finding.Verdict[key]))
	}
	return row
}

// sizeColumns applies the longest-cell width heuristic, capped
func sizeColumns(f *excelize.File, sheet string, widths []int) error {
	for i, w := range widths {
		width := float64(w + 2)
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s on %s: %w", col, sheet, err)
		}
	}
	return nil
}

// sheetName makes a region safe to use as a sheet name
func sheetName(region string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, region)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}
