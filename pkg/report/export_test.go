package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/grovetools/seqrkit/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var familyColumns = []Column{
	{Field: "familyId", Label: "Family"},
	{Field: "coverage", Label: "Coverage", Format: func(r Row) string {
		return fmt.Sprintf("%sx", RawValue(r["coverage"]))
	}, NoFormatExport: true},
	{Field: "analysts", Label: "Analysts"},
	{Field: "status", Format: func(r Row) string { return "Status: " + RawValue(r["status"]) }},
}

var familyRows = []Row{
	{"familyId": "F1", "coverage": float64(30), "analysts": []any{"ann", "bo"}, "status": "solved"},
	{"familyId": "F2", "coverage": 12.5, "status": "open, pending"},
}

func TestExportTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatTSV, familyColumns, familyRows))

	want := "Family\tCoverage\tAnalysts\tstatus\n" +
		"F1\t30\tann, bo\tStatus: solved\n" +
		"F2\t12.5\t\tStatus: open, pending\n"
	assert.Equal(t, want, buf.String())
}

func TestExportCSVQuotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, familyColumns, familyRows[1:]))

	assert.Equal(t, "Family,Coverage,Analysts,status\nF2,12.5,,\"Status: open, pending\"\n", buf.String())
}

func TestExportUnknownFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, "xlsx", familyColumns, familyRows)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestDisplayUsesFormatter(t *testing.T) {
	assert.Equal(t, "30x", familyColumns[1].Display(familyRows[0]))
	assert.Equal(t, "30", familyColumns[1].ExportValue(familyRows[0]))
	assert.Equal(t, "status", familyColumns[3].Header())
}

func TestFilename(t *testing.T) {
	date := time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC)

	first := Filename("Cardio Project / 2", "discovery_sheet", date, FormatTSV)
	second := Filename("Cardio Project / 2", "discovery_sheet", date, FormatTSV)

	assert.Equal(t, "Cardio_Project_2_discovery_sheet_2026-03-09.tsv", first)
	assert.Equal(t, first, second)
	assert.Equal(t, "all_gene_list_2026-03-09.tsv", Filename("all", "gene_list", date, ""))
	assert.Equal(t, "all_gene_list_2026-03-09.csv", Filename("all", "gene_list", date.Add(time.Hour), FormatCSV))
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{"id": "b", "n": float64(10)},
		{"id": "a", "n": float64(2)},
		{"id": "C", "n": "3"},
	}

	byNumber := SortRows(rows, "n", false)
	assert.Equal(t, []any{"a", "C", "b"}, []any{byNumber[0]["id"], byNumber[1]["id"], byNumber[2]["id"]})

	byText := SortRows(rows, "id", true)
	assert.Equal(t, []any{"C", "b", "a"}, []any{byText[0]["id"], byText[1]["id"], byText[2]["id"]})

	assert.Equal(t, "b", rows[0]["id"], "input is not reordered")
}

func TestFilterRows(t *testing.T) {
	assert.Len(t, FilterRows(familyRows, "", familyColumns), 2)
	assert.Len(t, FilterRows(familyRows, "PENDING", familyColumns), 1)
	assert.Len(t, FilterRows(familyRows, "30x", familyColumns), 1)
	assert.Empty(t, FilterRows(familyRows, "nothing", familyColumns))
}

func TestRender(t *testing.T) {
	out := Render(familyColumns, familyRows)

	assert.Contains(t, out, "Family")
	assert.Contains(t, out, "F2")
	assert.Contains(t, out, "30x")
}
