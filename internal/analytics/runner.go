package analytics

import (
	"fmt"

	"churndash/domain/churn"
	"churndash/domain/dashboard"
	"churndash/internal"
	"churndash/internal/errors"
	"churndash/internal/guard"
	"churndash/internal/metrics"
)

// Output is what a chart builder produces on success
type Output struct {
	Series []dashboard.Series
	Boxes  []dashboard.BoxSummary
}

// Chart describes one guarded chart computation. Key must be registered
// in guard.Requirements.
type Chart struct {
	Key   string
	Title string
	Kind  dashboard.ChartKind
	Build func(table *churn.Table, bins int) (Output, error)
}

// Runner evaluates charts one at a time, isolating failures per chart
type Runner struct {
	view    string
	bins    int
	logger  *internal.Logger
	metrics *metrics.Recorder
}

// NewRunner creates a runner that labels its metrics with view
func NewRunner(view string, bins int, logger *internal.Logger, recorder *metrics.Recorder) *Runner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	return &Runner{view: view, bins: bins, logger: logger.Named(view), metrics: recorder}
}

// Run evaluates every chart in order
func (r *Runner) Run(table *churn.Table, charts []Chart) dashboard.Report {
	report := dashboard.Report{Results: make([]dashboard.AggregateResult, 0, len(charts))}
	seen := make(map[string]bool)

	for _, chart := range charts {
		gate := guard.CheckFor(table, chart.Key)
		for _, w := range gate.Warnings {
			if !seen[w] {
				seen[w] = true
				report.Warnings = append(report.Warnings, w)
			}
		}

		res := r.runOne(table, chart, gate)
		r.metrics.ObserveComputation(r.view, res.Key, string(res.Status))
		report.Results = append(report.Results, res)
	}
	return report
}

func (r *Runner) runOne(table *churn.Table, chart Chart, gate guard.Gate) (res dashboard.AggregateResult) {
	res = dashboard.AggregateResult{Key: chart.Key, Title: chart.Title, Chart: chart.Kind}

	if err := gate.Err(); err != nil {
		r.logger.Debug("chart %s skipped: %v", chart.Key, err)
		res.Fail(err)
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			err := errors.ComputationFailed(chart.Key, fmt.Errorf("panic: %v", p))
			r.logger.Error("%v", err)
			res.Fail(err)
		}
	}()

	out, err := chart.Build(table, r.bins)
	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.ComputationFailed(chart.Key, err)
		}
		r.logger.Warn("chart %s failed: %v", chart.Key, err)
		res.Fail(err)
		return res
	}

	res.Series = out.Series
	res.Boxes = out.Boxes
	res.Status = dashboard.StatusOK
	return res
}
