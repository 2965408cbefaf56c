package testkit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"churndash/domain/churn"
)

// Row is one raw dataset row with every cell as text
type Row struct {
	CustomerID     string
	Gender         string
	Dependents     string
	MultipleLines  string
	Contract       string
	PaymentMethod  string
	Tenure         string
	MonthlyCharges string
	TotalCharges   string
	Churn          string
}

// Cells returns the row in Header order
func (r Row) Cells() []string {
	return []string{
		r.CustomerID,
		r.Gender,
		r.Dependents,
		r.MultipleLines,
		r.Contract,
		r.PaymentMethod,
		r.Tenure,
		r.MonthlyCharges,
		r.TotalCharges,
		r.Churn,
	}
}

// CSV renders a header plus rows as CSV text
func CSV(rows ...Row) string {
	all := [][]string{Header()}
	for _, r := range rows {
		all = append(all, r.Cells())
	}
	var buf bytes.Buffer
	_ = WriteCSV(&buf, all)
	return buf.String()
}

// WriteFile writes content into a temp dir owned by t and returns the path
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

// Customer builds a fully populated record for tests that work on tables directly
func Customer(gender string, dependents, churned bool, payment string) churn.CustomerRecord {
	return churn.CustomerRecord{
		CustomerID:     "c-" + gender,
		Gender:         gender,
		Dependents:     flag(dependents),
		MultipleLines:  "No",
		Contract:       "Month-to-month",
		PaymentMethod:  payment,
		Tenure:         churn.Num(12),
		MonthlyCharges: churn.Num(50),
		TotalCharges:   churn.Num(600),
		Churn:          flag(churned),
	}
}

// FullTable wraps records in a table carrying every schema column
func FullTable(records ...churn.CustomerRecord) *churn.Table {
	return churn.NewTable(churn.AllColumns, records)
}

// TableWithout wraps records in a table lacking the given columns
func TableWithout(records []churn.CustomerRecord, drop ...churn.Column) *churn.Table {
	skip := make(map[churn.Column]bool, len(drop))
	for _, c := range drop {
		skip[c] = true
	}
	var cols []churn.Column
	for _, c := range churn.AllColumns {
		if !skip[c] {
			cols = append(cols, c)
		}
	}
	return churn.NewTable(cols, records)
}

func flag(b bool) churn.Flag {
	if b {
		return churn.True
	}
	return churn.False
}
