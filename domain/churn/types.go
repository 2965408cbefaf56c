package churn

import (
	"strings"
	"unicode"
)

// Column identifies one field of the churn dataset
type Column string

const (
	ColCustomerID     Column = "customerID"
	ColGender         Column = "gender"
	ColDependents     Column = "Dependents"
	ColMultipleLines  Column = "MultipleLines"
	ColContract       Column = "Contract"
	ColPaymentMethod  Column = "PaymentMethod"
	ColTenure         Column = "tenure"
	ColMonthlyCharges Column = "MonthlyCharges"
	ColTotalCharges   Column = "TotalCharges"
	ColChurn          Column = "Churn"
)

// AllColumns lists the schema in header order
var AllColumns = []Column{
	ColCustomerID,
	ColGender,
	ColDependents,
	ColMultipleLines,
	ColContract,
	ColPaymentMethod,
	ColTenure,
	ColMonthlyCharges,
	ColTotalCharges,
	ColChurn,
}

// String returns the header name of the column
func (c Column) String() string { return string(c) }

// IsNumeric reports whether the column is coerced to a Number
func (c Column) IsNumeric() bool {
	switch c {
	case ColTenure, ColMonthlyCharges, ColTotalCharges:
		return true
	}
	return false
}

// IsFlag reports whether the column is coerced to a Flag
func (c Column) IsFlag() bool {
	return c == ColChurn || c == ColDependents
}

// ResolveColumn maps a raw header onto the schema. Matching ignores case,
// spaces, underscores and dashes so "monthly_charges" resolves to MonthlyCharges.
func ResolveColumn(header string) (Column, bool) {
	key := normalizeHeader(header)
	for _, c := range AllColumns {
		if normalizeHeader(string(c)) == key {
			return c, true
		}
	}
	return "", false
}

func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimPrefix(s, "\ufeff") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Number is a float that may be missing after coercion
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// FlagState is the coerced state of a boolean-like cell
type FlagState int

const (
	FlagMissing FlagState = iota
	FlagFalse
	FlagTrue
	FlagInvalid
)

// Flag is a boolean-like cell. Values that could not be coerced keep their
// original text in Raw and carry FlagInvalid.
type Flag struct {
	State FlagState
	Raw   string
}

// True and False are the two well-typed flags
var (
	True  = Flag{State: FlagTrue}
	False = Flag{State: FlagFalse}
)

// IsTrue reports a well-typed true flag
func (f Flag) IsTrue() bool { return f.State == FlagTrue }

// Known reports whether the flag holds a boolean
func (f Flag) Known() bool { return f.State == FlagTrue || f.State == FlagFalse }

// Float returns 1 or 0 for a known flag
func (f Flag) Float() (float64, bool) {
	switch f.State {
	case FlagTrue:
		return 1, true
	case FlagFalse:
		return 0, true
	}
	return 0, false
}

// Label renders the flag the way the churn column is presented
func (f Flag) Label() string {
	switch f.State {
	case FlagTrue:
		return "Yes"
	case FlagFalse:
		return "No"
	case FlagInvalid:
		return "Invalid"
	}
	return "Missing"
}

// CustomerRecord is one row of the dataset after coercion
type CustomerRecord struct {
	CustomerID     string
	Gender         string
	Dependents     Flag
	MultipleLines  string
	Contract       string
	PaymentMethod  string
	Tenure         Number
	MonthlyCharges Number
	TotalCharges   Number
	Churn          Flag
}

// Number returns the numeric field for a numeric column
func (r *CustomerRecord) Number(c Column) Number {
	switch c {
	case ColTenure:
		return r.Tenure
	case ColMonthlyCharges:
		return r.MonthlyCharges
	case ColTotalCharges:
		return r.TotalCharges
	}
	return Number{}
}

// Flag returns the flag field for a flag column
func (r *CustomerRecord) Flag(c Column) Flag {
	switch c {
	case ColChurn:
		return r.Churn
	case ColDependents:
		return r.Dependents
	}
	return Flag{}
}

// Text returns the categorical field for a string column
func (r *CustomerRecord) Text(c Column) string {
	switch c {
	case ColCustomerID:
		return r.CustomerID
	case ColGender:
		return r.Gender
	case ColMultipleLines:
		return r.MultipleLines
	case ColContract:
		return r.Contract
	case ColPaymentMethod:
		return r.PaymentMethod
	}
	return ""
}

// valid reports whether the record holds a well-typed value for c
func (r *CustomerRecord) valid(c Column) bool {
	switch {
	case c.IsNumeric():
		return r.Number(c).Valid
	case c.IsFlag():
		return r.Flag(c).Known()
	default:
		return r.Text(c) != ""
	}
}
