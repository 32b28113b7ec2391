package report

import (
	"fmt"
	"strings"
)

// Row is one record of a report.
type Row map[string]any

// Column declares how a row field is labelled, displayed, and exported.
type Column struct {
	Field string
	Label string
	// Format renders the on-screen value. Nil shows the raw value.
	Format func(Row) string
	// NoFormatExport exports the raw value even when Format is set.
	NoFormatExport bool
}

// Header returns the column label, falling back to the field name.
func (c Column) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Field
}

// Display returns the value shown on screen.
func (c Column) Display(row Row) string {
	if c.Format != nil {
		return c.Format(row)
	}
	return RawValue(row[c.Field])
}

// ExportValue returns the value written to an export file.
func (c Column) ExportValue(row Row) string {
	if c.NoFormatExport {
		return RawValue(row[c.Field])
	}
	return c.Display(row)
}

// RawValue renders a field value without column formatting. Lists are
// joined with ", " and missing values are empty.
func RawValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = RawValue(item)
		}
		return strings.Join(parts, ", ")
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}
