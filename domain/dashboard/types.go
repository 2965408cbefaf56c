package dashboard

import (
	"sort"

	"churndash/internal/errors"
)

// Status is the outcome of a single metric or chart computation
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// StatusFor maps a computation error onto a result status
func StatusFor(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch errors.GetCode(err) {
	case errors.CodeMissingColumn, errors.CodeEmptyTable:
		return StatusSkipped
	}
	return StatusError
}

// ChartKind tells the rendering layer how to draw a result
type ChartKind string

const (
	ChartHistogram  ChartKind = "histogram"
	ChartBar        ChartKind = "bar"
	ChartGroupedBar ChartKind = "grouped_bar"
	ChartBox        ChartKind = "box"
	ChartPie        ChartKind = "pie"
	ChartTreemap    ChartKind = "treemap"
)

// Point is one labelled value
type Point struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Series is a named list of points
type Series struct {
	Name   string  `json:"name" yaml:"name"`
	Points []Point `json:"points" yaml:"points"`
}

// BoxSummary holds the five-number summary of one group
type BoxSummary struct {
	Group  string  `json:"group" yaml:"group"`
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
}

// AggregateResult is the data behind one chart
type AggregateResult struct {
	Key     string       `json:"key" yaml:"key"`
	Title   string       `json:"title" yaml:"title"`
	Chart   ChartKind    `json:"chart" yaml:"chart"`
	Status  Status       `json:"status" yaml:"status"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
	Missing []string     `json:"missing,omitempty" yaml:"missing,omitempty"`
	Series  []Series     `json:"series,omitempty" yaml:"series,omitempty"`
	Boxes   []BoxSummary `json:"boxes,omitempty" yaml:"boxes,omitempty"`
}

// Fail turns an error into a skipped or errored result in place
func (r *AggregateResult) Fail(err error) {
	r.Status = StatusFor(err)
	r.Message = err.Error()
	r.Missing = errors.MissingFrom(err)
	r.Series = nil
	r.Boxes = nil
}

// OK reports a computed result
func (r AggregateResult) OK() bool { return r.Status == StatusOK }

// Counter accumulates category counts preserving only observed labels
type Counter map[string]float64

// Add increments label by v
func (c Counter) Add(label string, v float64) { c[label] += v }

// ByCount returns the points ordered by value descending then label
func (c Counter) ByCount() []Point {
	points := c.points()
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Label < points[j].Label
	})
	return points
}

// ByLabel returns the points ordered by label
func (c Counter) ByLabel() []Point {
	points := c.points()
	sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })
	return points
}

func (c Counter) points() []Point {
	points := make([]Point, 0, len(c))
	for label, v := range c {
		points = append(points, Point{Label: label, Value: v})
	}
	return points
}

// Report is an ordered set of chart results plus guard warnings
type Report struct {
	Results  []AggregateResult `json:"results" yaml:"results"`
	Warnings []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Get returns the result with the given key
func (r Report) Get(key string) (AggregateResult, bool) {
	for _, res := range r.Results {
		if res.Key == key {
			return res, true
		}
	}
	return AggregateResult{}, false
}
