// Package analytics answers the pre-authored churn questions. Each question
// is a guarded Chart evaluated by a Runner, so one failing question never
// hides the others.
package analytics

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"churndash/domain/churn"
	"churndash/domain/dashboard"
	"churndash/internal"
	"churndash/internal/metrics"

	"github.com/montanaflynn/stats"
)

// Catalog computes the analytics view
type Catalog struct {
	runner *Runner
}

// NewCatalog creates a catalog binning histograms into bins buckets
func NewCatalog(bins int, logger *internal.Logger, recorder *metrics.Recorder) *Catalog {
	return &Catalog{runner: NewRunner("analytics", bins, logger, recorder)}
}

// Compute evaluates every question against table
func (c *Catalog) Compute(ctx context.Context, table *churn.Table) dashboard.Report {
	return c.runner.Run(table, questions)
}

// Keys lists the question keys in display order
func Keys() []string {
	keys := make([]string, len(questions))
	for i, q := range questions {
		keys[i] = q.Key
	}
	return keys
}

var questions = []Chart{
	{
		Key:   "q1_male_dependents_payment",
		Title: "Payment methods of churned male customers with dependents",
		Kind:  dashboard.ChartTreemap,
		Build: func(t *churn.Table, _ int) (Output, error) {
			return paymentMethodsOf(t, "Male"), nil
		},
	},
	{
		Key:   "q2_female_dependents_payment",
		Title: "Payment methods of churned female customers with dependents",
		Kind:  dashboard.ChartTreemap,
		Build: func(t *churn.Table, _ int) (Output, error) {
			return paymentMethodsOf(t, "Female"), nil
		},
	},
	{
		Key:   "q3_churned_total_charges_by_gender",
		Title: "TotalCharges of churned customers by gender",
		Kind:  dashboard.ChartHistogram,
		Build: churnedTotalChargesByGender,
	},
	{
		Key:   "q4_total_charges_dispersion_by_gender",
		Title: "Dispersion of TotalCharges by gender",
		Kind:  dashboard.ChartBox,
		Build: func(t *churn.Table, _ int) (Output, error) {
			boxes, err := Boxes(GroupNumbers(t, churn.ColGender, churn.ColTotalCharges, nil))
			return Output{Boxes: boxes}, err
		},
	},
	{
		Key:   "q5_churned_mean_total_charges_by_contract",
		Title: "Mean TotalCharges of churned customers by contract",
		Kind:  dashboard.ChartBar,
		Build: churnedMeanTotalChargesByContract,
	},
	{
		Key:   "q6_churned_multiple_lines_by_gender",
		Title: "Churned customers by multiple lines and gender",
		Kind:  dashboard.ChartGroupedBar,
		Build: churnedMultipleLinesByGender,
	},
	{
		Key:   "q7_monthly_charges_share_by_gender",
		Title: "Share of MonthlyCharges by gender",
		Kind:  dashboard.ChartPie,
		Build: func(t *churn.Table, _ int) (Output, error) {
			return sharesOf("MonthlyCharges", GroupNumbers(t, churn.ColGender, churn.ColMonthlyCharges, nil))
		},
	},
	{
		Key:   "q8_total_charges_share_by_churn",
		Title: "Share of TotalCharges by churn status",
		Kind:  dashboard.ChartPie,
		Build: func(t *churn.Table, _ int) (Output, error) {
			return sharesOf("TotalCharges", GroupNumbers(t, churn.ColChurn, churn.ColTotalCharges, nil))
		},
	},
}

func churned(rec *churn.CustomerRecord) bool { return rec.Churn.IsTrue() }

// GroupNumbers splits the valid values of a numeric column by a category
// column, restricted by pred. Rows with an empty category or an unknown
// flag are dropped.
func GroupNumbers(t *churn.Table, by, value churn.Column, pred func(*churn.CustomerRecord) bool) map[string][]float64 {
	groups := make(map[string][]float64)
	t.Each(func(rec *churn.CustomerRecord) {
		if pred != nil && !pred(rec) {
			return
		}
		label, ok := categoryOf(rec, by)
		if !ok {
			return
		}
		if n := rec.Number(value); n.Valid {
			groups[label] = append(groups[label], n.Value)
		}
	})
	return groups
}

func categoryOf(rec *churn.CustomerRecord, c churn.Column) (string, bool) {
	if c.IsFlag() {
		f := rec.Flag(c)
		return f.Label(), f.Known()
	}
	text := rec.Text(c)
	return text, text != ""
}

func paymentMethodsOf(t *churn.Table, gender string) Output {
	counts := dashboard.Counter{}
	t.Each(func(rec *churn.CustomerRecord) {
		if rec.Gender == gender && rec.Dependents.IsTrue() && churned(rec) && rec.PaymentMethod != "" {
			counts.Add(rec.PaymentMethod, 1)
		}
	})
	return Output{Series: []dashboard.Series{{Name: "PaymentMethod", Points: counts.ByCount()}}}
}

func churnedTotalChargesByGender(t *churn.Table, bins int) (Output, error) {
	groups := GroupNumbers(t, churn.ColGender, churn.ColTotalCharges, churned)

	labels := sortedLabels(groups)
	samples := make([][]float64, len(labels))
	for i, l := range labels {
		samples[i] = groups[l]
	}
	edges, err := Edges(bins, samples...)
	if err != nil {
		return Output{}, fmt.Errorf("no churned customers with TotalCharges: %w", err)
	}

	out := Output{Series: make([]dashboard.Series, len(labels))}
	for i, l := range labels {
		out.Series[i] = Histogram(l, groups[l], edges)
	}
	return out, nil
}

func churnedMeanTotalChargesByContract(t *churn.Table, _ int) (Output, error) {
	groups := GroupNumbers(t, churn.ColContract, churn.ColTotalCharges, churned)
	if len(groups) == 0 {
		return Output{}, fmt.Errorf("no churned customers with a contract and TotalCharges")
	}

	means := dashboard.Counter{}
	for label, values := range groups {
		mean, err := stats.Mean(values)
		if err != nil {
			return Output{}, err
		}
		means.Add(label, mean)
	}
	return Output{Series: []dashboard.Series{{Name: "Mean TotalCharges", Points: means.ByLabel()}}}, nil
}

func churnedMultipleLinesByGender(t *churn.Table, _ int) (Output, error) {
	byGender := make(map[string]dashboard.Counter)
	t.Each(func(rec *churn.CustomerRecord) {
		if !churned(rec) || rec.Gender == "" || rec.MultipleLines == "" {
			return
		}
		if byGender[rec.Gender] == nil {
			byGender[rec.Gender] = dashboard.Counter{}
		}
		byGender[rec.Gender].Add(rec.MultipleLines, 1)
	})

	var out Output
	for _, gender := range sortedLabels(byGender) {
		out.Series = append(out.Series, dashboard.Series{Name: gender, Points: byGender[gender].ByLabel()})
	}
	return out, nil
}

func sharesOf(name string, groups map[string][]float64) (Output, error) {
	if len(groups) == 0 {
		return Output{}, fmt.Errorf("no %s values to share out", name)
	}
	sums := dashboard.Counter{}
	for label, values := range groups {
		sum, err := stats.Sum(values)
		if err != nil {
			return Output{}, err
		}
		sums.Add(label, sum)
	}
	return Output{Series: []dashboard.Series{{Name: name, Points: sums.ByLabel()}}}, nil
}

func sortedLabels[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
