package kpi

import (
	"context"
	"fmt"
	"strings"

	"churndash/domain/churn"
	"churndash/domain/dashboard"
	"churndash/internal"
	"churndash/internal/errors"
	"churndash/internal/guard"
	"churndash/internal/metrics"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
)

// Metric is one KPI card
type Metric struct {
	Key       string            `json:"key" yaml:"key"`
	Title     string            `json:"title" yaml:"title"`
	Value     float64           `json:"value" yaml:"value"`
	Display   string            `json:"display" yaml:"display"`
	Breakdown []dashboard.Point `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
	Status    dashboard.Status  `json:"status" yaml:"status"`
	Message   string            `json:"message,omitempty" yaml:"message,omitempty"`
	Missing   []string          `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Report is the full KPI grid
type Report struct {
	Metrics  []Metric `json:"metrics" yaml:"metrics"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Get returns the metric with the given key
func (r Report) Get(key string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// value is what a metric computation hands back before status is attached
type value struct {
	number    float64
	display   string
	breakdown []dashboard.Point
}

type definition struct {
	key     string
	title   string
	compute func(table *churn.Table) (value, error)
}

// catalog is the fixed, ordered set of KPI cards
var catalog = []definition{
	{"grand_total_charges", "Grand TotalCharges", func(t *churn.Table) (value, error) {
		return moneyOf(stats.Sum, t.Numbers(churn.ColTotalCharges, nil))
	}},
	{"grand_monthly_charges", "Grand MonthlyCharges", func(t *churn.Table) (value, error) {
		return moneyOf(stats.Sum, t.Numbers(churn.ColMonthlyCharges, nil))
	}},
	{"average_tenure", "Average Tenure", func(t *churn.Table) (value, error) {
		return moneyOf(stats.Mean, t.Numbers(churn.ColTenure, nil))
	}},
	{"churned_customers", "Churned Customers", func(t *churn.Table) (value, error) {
		n := len(t.Filter(func(r *churn.CustomerRecord) bool { return r.Churn.IsTrue() }))
		return count(n), nil
	}},
	{"total_customers", "Total Customers", func(t *churn.Table) (value, error) {
		return count(t.Len()), nil
	}},
	{"dependents_pct", "Customers with Dependents %", func(t *churn.Table) (value, error) {
		return percentOf(flags(t, churn.ColDependents))
	}},
	{"avg_monthly_charges", "Avg MonthlyCharges per Customer", func(t *churn.Table) (value, error) {
		return moneyOf(stats.Mean, t.Numbers(churn.ColMonthlyCharges, nil))
	}},
	{"churn_rate_pct", "Churn Rate %", func(t *churn.Table) (value, error) {
		return percentOf(flags(t, churn.ColChurn))
	}},
	{"total_dependents", "Total Dependents", func(t *churn.Table) (value, error) {
		sum, err := stats.Sum(flags(t, churn.ColDependents))
		if err != nil {
			return value{}, err
		}
		return count(int(sum)), nil
	}},
	{"multiple_lines_pct", "Customers with Multiple Lines %", func(t *churn.Table) (value, error) {
		indicator := make([]float64, 0, t.Len())
		t.Each(func(r *churn.CustomerRecord) {
			if r.MultipleLines == "Yes" {
				indicator = append(indicator, 1)
			} else {
				indicator = append(indicator, 0)
			}
		})
		return percentOf(indicator)
	}},
	{"average_total_charges", "Average TotalCharges", func(t *churn.Table) (value, error) {
		return moneyOf(stats.Mean, t.Numbers(churn.ColTotalCharges, nil))
	}},
	{"gender_distribution", "Gender Distribution", genderDistribution},
}

// Keys lists the KPI keys in display order
func Keys() []string {
	keys := make([]string, len(catalog))
	for i, d := range catalog {
		keys[i] = d.key
	}
	return keys
}

// Engine computes the KPI grid
type Engine struct {
	logger  *internal.Logger
	metrics *metrics.Recorder
}

// NewEngine creates a KPI engine
func NewEngine(logger *internal.Logger, recorder *metrics.Recorder) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{logger: logger.Named("kpi"), metrics: recorder}
}

// Compute evaluates every card independently. A skipped or failed card
// never prevents the others from computing.
func (e *Engine) Compute(ctx context.Context, table *churn.Table) Report {
	report := Report{Metrics: make([]Metric, 0, len(catalog))}
	seen := make(map[string]bool)

	for _, def := range catalog {
		gate := guard.CheckFor(table, def.key)
		for _, w := range gate.Warnings {
			if !seen[w] {
				seen[w] = true
				report.Warnings = append(report.Warnings, w)
			}
		}

		m := e.computeOne(table, def, gate)
		e.metrics.ObserveComputation("kpi", m.Key, string(m.Status))
		report.Metrics = append(report.Metrics, m)
	}
	return report
}

func (e *Engine) computeOne(table *churn.Table, def definition, gate guard.Gate) (m Metric) {
	m = Metric{Key: def.key, Title: def.title}

	fail := func(err error) {
		m.Status = dashboard.StatusFor(err)
		m.Message = err.Error()
		m.Missing = errors.MissingFrom(err)
		m.Display = "n/a"
		m.Value = 0
		m.Breakdown = nil
	}

	if err := gate.Err(); err != nil {
		e.logger.Debug("metric %s skipped: %v", def.key, err)
		fail(err)
		return m
	}

	defer func() {
		if r := recover(); r != nil {
			err := errors.ComputationFailed(def.key, fmt.Errorf("panic: %v", r))
			e.logger.Error("%v", err)
			fail(err)
		}
	}()

	v, err := def.compute(table)
	if err != nil {
		err = errors.ComputationFailed(def.key, err)
		e.logger.Warn("%v", err)
		fail(err)
		return m
	}

	m.Value = v.number
	m.Display = v.display
	m.Breakdown = v.breakdown
	m.Status = dashboard.StatusOK
	return m
}

func genderDistribution(t *churn.Table) (value, error) {
	counts := dashboard.Counter{}
	total := 0
	t.Each(func(r *churn.CustomerRecord) {
		if r.Gender != "" {
			counts.Add(r.Gender, 1)
			total++
		}
	})
	if total == 0 {
		return value{}, fmt.Errorf("no gender values")
	}

	points := counts.ByCount()
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%s: %d", p.Label, int(p.Value))
	}
	return value{number: float64(total), display: strings.Join(parts, ", "), breakdown: points}, nil
}

// flags returns 1/0 for every well-typed flag in the column
func flags(t *churn.Table, c churn.Column) []float64 {
	var out []float64
	t.Each(func(r *churn.CustomerRecord) {
		if v, ok := r.Flag(c).Float(); ok {
			out = append(out, v)
		}
	})
	return out
}

func moneyOf(agg func(stats.Float64Data) (float64, error), data []float64) (value, error) {
	v, err := agg(data)
	if err != nil {
		return value{}, err
	}
	return value{number: v, display: FormatMoney(v)}, nil
}

func percentOf(indicator []float64) (value, error) {
	mean, err := stats.Mean(indicator)
	if err != nil {
		return value{}, err
	}
	pct, err := stats.Round(mean*100, 2)
	if err != nil {
		return value{}, err
	}
	return value{number: pct, display: FormatPercent(pct)}, nil
}

func count(n int) value {
	return value{number: float64(n), display: fmt.Sprintf("%d", n)}
}

// FormatMoney renders thousands-separated values with two decimals
func FormatMoney(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// FormatPercent renders a percentage with two decimals
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// OK reports a computed metric
func (m Metric) OK() bool { return m.Status == dashboard.StatusOK }
