// Package guard decides, per computation, whether a table carries the
// columns that computation needs. Requirements live in one declarative
// table so adding a metric or chart means adding one entry here.
package guard

import (
	"fmt"
	"sort"

	"churndash/domain/churn"
	"churndash/internal/errors"
)

// Gate is the verdict for one computation
type Gate struct {
	OK       bool
	Empty    bool
	Missing  []string
	Invalid  []string
	Warnings []string
}

// Err converts a closed gate into an EMPTY_TABLE or MISSING_COLUMN error
func (g Gate) Err() error {
	switch {
	case g.OK:
		return nil
	case g.Empty:
		return errors.EmptyTable()
	default:
		return errors.MissingColumns(append(append([]string(nil), g.Missing...), g.Invalid...)...)
	}
}

// Check gates a computation on the given columns. A column is invalid when
// it is present but holds no well-typed value at all; partially invalid
// flag columns only add warnings.
func Check(table *churn.Table, required []churn.Column) Gate {
	if table.IsEmpty() {
		return Gate{Empty: true}
	}

	var gate Gate
	for _, c := range required {
		switch {
		case !table.Has(c):
			gate.Missing = append(gate.Missing, c.String())
		case table.ValidCount(c) == 0:
			gate.Invalid = append(gate.Invalid, c.String())
		case table.InvalidCount(c) > 0:
			gate.Warnings = append(gate.Warnings,
				fmt.Sprintf("%s: %d values could not be coerced and were excluded", c, table.InvalidCount(c)))
		}
	}
	gate.OK = len(gate.Missing) == 0 && len(gate.Invalid) == 0
	return gate
}

// CheckFor gates a computation registered in Requirements
func CheckFor(table *churn.Table, key string) Gate {
	required, ok := Requirements[key]
	if !ok {
		return Gate{Missing: []string{fmt.Sprintf("unregistered computation %q", key)}}
	}
	return Check(table, required)
}

// Keys returns the registered computation keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(Requirements))
	for k := range Requirements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Requirements maps every computation key to the columns it reads
var Requirements = map[string][]churn.Column{
	// KPI cards
	"grand_total_charges":   {churn.ColTotalCharges},
	"grand_monthly_charges": {churn.ColMonthlyCharges},
	"average_tenure":        {churn.ColTenure},
	"churned_customers":     {churn.ColChurn},
	"total_customers":       {},
	"dependents_pct":        {churn.ColDependents},
	"avg_monthly_charges":   {churn.ColMonthlyCharges},
	"churn_rate_pct":        {churn.ColChurn},
	"total_dependents":      {churn.ColDependents},
	"multiple_lines_pct":    {churn.ColMultipleLines},
	"average_total_charges": {churn.ColTotalCharges},
	"gender_distribution":   {churn.ColGender},

	// Analytical questions
	"q1_male_dependents_payment":                {churn.ColGender, churn.ColDependents, churn.ColChurn, churn.ColPaymentMethod},
	"q2_female_dependents_payment":              {churn.ColGender, churn.ColDependents, churn.ColChurn, churn.ColPaymentMethod},
	"q3_churned_total_charges_by_gender":        {churn.ColChurn, churn.ColGender, churn.ColTotalCharges},
	"q4_total_charges_dispersion_by_gender":     {churn.ColGender, churn.ColTotalCharges},
	"q5_churned_mean_total_charges_by_contract": {churn.ColChurn, churn.ColContract, churn.ColTotalCharges},
	"q6_churned_multiple_lines_by_gender":       {churn.ColChurn, churn.ColMultipleLines, churn.ColGender},
	"q7_monthly_charges_share_by_gender":        {churn.ColGender, churn.ColMonthlyCharges},
	"q8_total_charges_share_by_churn":           {churn.ColChurn, churn.ColTotalCharges},

	// Exploratory charts
	"tenure_histogram":            {churn.ColTenure},
	"monthly_charges_histogram":   {churn.ColMonthlyCharges},
	"total_charges_histogram":     {churn.ColTotalCharges},
	"churn_distribution":          {churn.ColChurn},
	"total_charges_by_gender_box": {churn.ColGender, churn.ColTotalCharges},
}
