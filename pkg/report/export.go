package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/grovetools/seqrkit/errors"
)

// Export formats.
const (
	FormatTSV = "tsv"
	FormatCSV = "csv"
)

// Export writes a header row of column labels followed by one line per row.
func Export(w io.Writer, format string, columns []Column, rows []Row) error {
	writer := csv.NewWriter(w)
	switch format {
	case FormatTSV, "":
		writer.Comma = '\t'
	case FormatCSV:
	default:
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown export format: %s", format))
	}

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header()
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = col.ExportValue(row)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename returns the download name for a report:
// <scope>_<report>_<YYYY-MM-DD>.<format>. The same inputs always give the
// same name; date is the only time-dependent part.
func Filename(scopeLabel, report string, date time.Time, format string) string {
	if format == "" {
		format = FormatTSV
	}
	parts := []string{
		sanitize(scopeLabel),
		sanitize(report),
		date.Format("2006-01-02"),
	}
	return strings.Join(parts, "_") + "." + format
}

func sanitize(s string) string {
	s = unsafeFilename.ReplaceAllString(strings.TrimSpace(s), "_")
	return strings.Trim(s, "_")
}
