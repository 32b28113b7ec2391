package reducer

// Record is a flat mapping of field names to values.
type Record map[string]any

// Table maps entity ids to records.
type Table map[string]Record

// MergeRecords returns a new record holding base overlaid with updates.
// Nested values are replaced, not merged.
func MergeRecords(base, updates Record) Record {
	out := make(Record, len(base)+len(updates))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of the table. Records are shared.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for id, rec := range t {
		out[id] = rec
	}
	return out
}
