package churn

// Table is the loaded dataset. It is built once and never mutated;
// consumers derive new results from it.
type Table struct {
	columns  map[Column]bool
	records  []CustomerRecord
	valid    map[Column]int
	invalid  map[Column]int
	warnings []string
}

// NewTable builds an immutable table over the given columns and records.
// The records slice is copied.
func NewTable(columns []Column, records []CustomerRecord, warnings ...string) *Table {
	t := &Table{
		columns:  make(map[Column]bool, len(columns)),
		records:  make([]CustomerRecord, len(records)),
		valid:    make(map[Column]int, len(columns)),
		invalid:  make(map[Column]int),
		warnings: append([]string(nil), warnings...),
	}
	copy(t.records, records)
	for _, c := range columns {
		t.columns[c] = true
	}

	for i := range t.records {
		rec := &t.records[i]
		for c := range t.columns {
			if rec.valid(c) {
				t.valid[c]++
				continue
			}
			if c.IsFlag() && rec.Flag(c).State == FlagInvalid {
				t.invalid[c]++
			}
		}
	}
	return t
}

// EmptyTable returns a table with no columns and no rows
func EmptyTable() *Table {
	return NewTable(nil, nil)
}

// Len returns the row count
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// IsEmpty reports a table without rows
func (t *Table) IsEmpty() bool { return t.Len() == 0 }

// Has reports whether the source carried the column
func (t *Table) Has(c Column) bool {
	if t == nil {
		return false
	}
	return t.columns[c]
}

// Columns returns the present columns in schema order
func (t *Table) Columns() []Column {
	var out []Column
	for _, c := range AllColumns {
		if t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// ValidCount returns how many rows hold a well-typed value for c
func (t *Table) ValidCount(c Column) int {
	if t == nil {
		return 0
	}
	return t.valid[c]
}

// InvalidCount returns how many flag cells in c failed coercion
func (t *Table) InvalidCount(c Column) int {
	if t == nil {
		return 0
	}
	return t.invalid[c]
}

// Warnings returns load-time notes (skipped rows, negative tenure, ...)
func (t *Table) Warnings() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.warnings...)
}

// Each calls fn for every record in load order. The record must not be retained.
func (t *Table) Each(fn func(rec *CustomerRecord)) {
	if t == nil {
		return
	}
	for i := range t.records {
		rec := t.records[i]
		fn(&rec)
	}
}

// Filter returns the records matching pred as a copy
func (t *Table) Filter(pred func(rec *CustomerRecord) bool) []CustomerRecord {
	var out []CustomerRecord
	t.Each(func(rec *CustomerRecord) {
		if pred(rec) {
			out = append(out, *rec)
		}
	})
	return out
}

// Numbers collects the valid values of a numeric column, optionally
// restricted by pred (nil keeps every row).
func (t *Table) Numbers(c Column, pred func(rec *CustomerRecord) bool) []float64 {
	var out []float64
	t.Each(func(rec *CustomerRecord) {
		if pred != nil && !pred(rec) {
			return
		}
		if n := rec.Number(c); n.Valid {
			out = append(out, n.Value)
		}
	})
	return out
}
