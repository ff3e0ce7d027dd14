package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagpatrol/tagpatrol/compliance"
	"github.com/tagpatrol/tagpatrol/types"
	"github.com/xuri/excelize/v2"
)

func evaluated(arn, region string, tags map[string]string, required []string) Finding {
	rec := types.Record{ARN: arn, Region: region, Service: "svc", Tags: tags}
	return Finding{Record: rec, Verdict: compliance.Evaluate(tags, required)}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRenderer_Header(t *testing.T) {
	r := NewRenderer([]string{"owner", "env"}, false)
	assert.Equal(t, []string{"Resource ARN", "Service", "Type", "owner", "env"}, r.Header())

	r = NewRenderer([]string{"owner"}, true)
	assert.Equal(t,
		[]string{"Resource ARN", "Service", "Type", "Created By", "Creation Event", "Event Time", "owner"},
		r.Header())
}

func TestRenderer_Render_SheetPerRegion(t *testing.T) {
	required := []string{"owner"}
	groups := NewGrouper().Group(context.Background(), []Finding{
		evaluated("svc:partA:r1", "partA", map[string]string{"owner": "alice"}, required),
		evaluated("svc:partB:r2", "partB", nil, required),
	})

	data, err := NewRenderer(required, false).Render(groups)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.ElementsMatch(t, []string{"partA", "partB"}, f.GetSheetList())

	rowsA, err := f.GetRows("partA")
	require.NoError(t, err)
	require.Len(t, rowsA, 2) // header + 1 record
	assert.Equal(t, []string{"Resource ARN", "Service", "Type", "owner"}, rowsA[0])
	assert.Equal(t, "svc:partA:r1", rowsA[1][0])
	assert.Equal(t, "Present", rowsA[1][3])

	rowsB, err := f.GetRows("partB")
	require.NoError(t, err)
	require.Len(t, rowsB, 2)
	assert.Equal(t, "svc:partB:r2", rowsB[1][0])
	assert.Equal(t, "Missing", rowsB[1][3])
}

func TestRenderer_Render_ColumnAndRowFidelity(t *testing.T) {
	required := []string{"owner", "env", "team"}
	var findings []Finding
	for _, arn := range []string{"arn:aws:ec2:us-east-1:1:a", "arn:aws:ec2:us-east-1:1:b", "arn:aws:ec2:us-east-1:1:c"} {
		findings = append(findings, evaluated(arn, "us-east-1", nil, required))
	}
	groups := NewGrouper().Group(context.Background(), findings)

	r := NewRenderer(required, true)
	data, err := r.Render(groups)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	rows, err := f.GetRows("us-east-1")
	require.NoError(t, err)

	// N+1 rows, K + fixed metadata columns
	require.Len(t, rows, 4)
	assert.Len(t, rows[0], len(baseColumns)+len(provenanceColumns)+len(required))
}

func TestRenderer_Render_ProvenanceSentinel(t *testing.T) {
	required := []string{"owner"}
	groups := NewGrouper().Group(context.Background(), []Finding{
		evaluated("arn:aws:ec2:us-east-1:1:x", "us-east-1", nil, required),
	})

	data, err := NewRenderer(required, true).Render(groups)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	rows, err := f.GetRows("us-east-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// unpopulated provenance renders the sentinel triple
	assert.Equal(t, "Unknown", rows[1][3])
	assert.Equal(t, "Unknown", rows[1][4])
	assert.Equal(t, "Unknown", rows[1][5])
}

func TestRenderer_Render_ColumnWidthsCapped(t *testing.T) {
	required := []string{"owner"}
	long := "arn:aws:ec2:us-east-1:123456789012:instance/" + string(bytes.Repeat([]byte{'x'}, 100))
	groups := NewGrouper().Group(context.Background(), []Finding{
		evaluated(long, "us-east-1", nil, required),
	})

	data, err := NewRenderer(required, false).Render(groups)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	width, err := f.GetColWidth("us-east-1", "A")
	require.NoError(t, err)
	assert.LessOrEqual(t, width, float64(maxColumnWidth))

	// short columns get sized to content, not the cap
	widthB, err := f.GetColWidth("us-east-1", "B")
	require.NoError(t, err)
	assert.Less(t, widthB, float64(maxColumnWidth))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "us-east-1", sheetName("us-east-1"))
	assert.Equal(t, "a-b", sheetName("a:b"))
	assert.Len(t, sheetName("very-long-region-name-that-exceeds-the-limit"), maxSheetName)
}
