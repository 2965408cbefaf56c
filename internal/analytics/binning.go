package analytics

import (
	"fmt"
	"math"
	"sort"

	"churndash/domain/dashboard"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the histogram bin count when none is configured
const DefaultBins = 20

// Edges returns bins+1 evenly spaced dividers covering every value in
// samples. The last divider sits just above the maximum so the maximum
// falls inside the final bin.
func Edges(bins int, samples ...[]float64) ([]float64, error) {
	if bins <= 0 {
		bins = DefaultBins
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return nil, fmt.Errorf("no values to bin")
	}
	if lo == hi {
		hi = lo + 1
	}

	edges := floats.Span(make([]float64, bins+1), lo, hi)
	edges[bins] = math.Nextafter(hi, math.Inf(1))
	return edges, nil
}

// Histogram counts values into the bins defined by edges
func Histogram(name string, values, edges []float64) dashboard.Series {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, edges, sorted, nil)

	points := make([]dashboard.Point, len(counts))
	for i, c := range counts {
		points[i] = dashboard.Point{Label: binLabel(edges[i], edges[i+1]), Value: c}
	}
	return dashboard.Series{Name: name, Points: points}
}

func binLabel(lo, hi float64) string {
	return fmt.Sprintf("[%.2f, %.2f)", lo, hi)
}

// Box computes the five-number summary of values
func Box(group string, values []float64) (dashboard.BoxSummary, error) {
	lo, err := stats.Min(values)
	if err != nil {
		return dashboard.BoxSummary{}, err
	}
	hi, _ := stats.Max(values)
	median, _ := stats.Median(values)

	box := dashboard.BoxSummary{Group: group, Count: len(values), Min: lo, Q1: lo, Median: median, Q3: hi, Max: hi}
	if len(values) > 1 {
		q, err := stats.Quartile(values)
		if err != nil {
			return dashboard.BoxSummary{}, err
		}
		box.Q1, box.Q3 = q.Q1, q.Q3
	}
	return box, nil
}

// Boxes computes one summary per group in label order, skipping groups
// without values
func Boxes(groups map[string][]float64) ([]dashboard.BoxSummary, error) {
	labels := make([]string, 0, len(groups))
	for label, values := range groups {
		if len(values) > 0 {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no values to summarize")
	}
	sort.Strings(labels)

	out := make([]dashboard.BoxSummary, 0, len(labels))
	for _, label := range labels {
		box, err := Box(label, groups[label])
		if err != nil {
			return nil, err
		}
		out = append(out, box)
	}
	return out, nil
}
