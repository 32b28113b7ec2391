package report

import (
	"sort"
	"strconv"
	"strings"
)

// SortRows returns rows ordered by field. Numeric values compare as numbers;
// everything else compares as text. The sort is stable and rows is not modified.
func SortRows(rows []Row, field string, descending bool) []Row {
	out := append([]Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i][field], out[j][field]
		if descending {
			a, b = b, a
		}
		return less(a, b)
	})
	return out
}

func less(a, b any) bool {
	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		return af < bf
	}
	return strings.ToLower(RawValue(a)) < strings.ToLower(RawValue(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// FilterRows keeps rows where any column's displayed value contains query,
// ignoring case. An empty query keeps every row.
func FilterRows(rows []Row, query string, columns []Column) []Row {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return rows
	}
	var out []Row
	for _, row := range rows {
		for _, col := range columns {
			if strings.Contains(strings.ToLower(col.Display(row)), query) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
