// Package eda builds the exploratory distribution charts
package eda

import (
	"context"
	"fmt"

	"churndash/domain/churn"
	"churndash/domain/dashboard"
	"churndash/internal"
	"churndash/internal/analytics"
	"churndash/internal/metrics"
)

// Builder computes the EDA view
type Builder struct {
	runner *analytics.Runner
}

// NewBuilder creates a builder binning histograms into bins buckets
func NewBuilder(bins int, logger *internal.Logger, recorder *metrics.Recorder) *Builder {
	return &Builder{runner: analytics.NewRunner("eda", bins, logger, recorder)}
}

// Compute evaluates every exploratory chart against table
func (b *Builder) Compute(ctx context.Context, table *churn.Table) dashboard.Report {
	return b.runner.Run(table, charts)
}

// Keys lists the chart keys in display order
func Keys() []string {
	keys := make([]string, len(charts))
	for i, c := range charts {
		keys[i] = c.Key
	}
	return keys
}

var charts = []analytics.Chart{
	histogramOf("tenure_histogram", "Distribution of tenure", churn.ColTenure),
	histogramOf("monthly_charges_histogram", "Distribution of MonthlyCharges", churn.ColMonthlyCharges),
	histogramOf("total_charges_histogram", "Distribution of TotalCharges", churn.ColTotalCharges),
	{
		Key:   "churn_distribution",
		Title: "Churn distribution",
		Kind:  dashboard.ChartBar,
		Build: churnDistribution,
	},
	{
		Key:   "total_charges_by_gender_box",
		Title: "TotalCharges by gender",
		Kind:  dashboard.ChartBox,
		Build: func(t *churn.Table, _ int) (analytics.Output, error) {
			boxes, err := analytics.Boxes(analytics.GroupNumbers(t, churn.ColGender, churn.ColTotalCharges, nil))
			return analytics.Output{Boxes: boxes}, err
		},
	},
}

func histogramOf(key, title string, c churn.Column) analytics.Chart {
	return analytics.Chart{
		Key:   key,
		Title: title,
		Kind:  dashboard.ChartHistogram,
		Build: func(t *churn.Table, bins int) (analytics.Output, error) {
			values := t.Numbers(c, nil)
			edges, err := analytics.Edges(bins, values)
			if err != nil {
				return analytics.Output{}, fmt.Errorf("%s: %w", c, err)
			}
			return analytics.Output{Series: []dashboard.Series{analytics.Histogram(c.String(), values, edges)}}, nil
		},
	}
}

// churnDistribution counts Yes and No, plus Invalid when any flag failed
// coercion. Missing values are not counted.
func churnDistribution(t *churn.Table, _ int) (analytics.Output, error) {
	counts := dashboard.Counter{}
	t.Each(func(rec *churn.CustomerRecord) {
		if rec.Churn.State != churn.FlagMissing {
			counts.Add(rec.Churn.Label(), 1)
		}
	})
	return analytics.Output{Series: []dashboard.Series{{Name: churn.ColChurn.String(), Points: counts.ByCount()}}}, nil
}
