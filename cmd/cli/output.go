package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"churndash/domain/dashboard"
	"churndash/internal/kpi"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// write encodes v in the requested format, delegating text output to writeText
func write(w io.Writer, format string, v interface{}, writeText func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", "text":
		return writeText(w)
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func writeKPIText(w io.Writer, report kpi.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KPI\tVALUE\tSTATUS")
	for _, m := range report.Metrics {
		status := string(m.Status)
		if !m.OK() {
			status += ": " + m.Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Title, m.Display, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeWarnings(w, report.Warnings)
}

func writeChartsText(w io.Writer, report dashboard.Report) error {
	for _, res := range report.Results {
		fmt.Fprintf(w, "== %s [%s]\n", res.Title, res.Status)
		if !res.OK() {
			fmt.Fprintf(w, "   %s\n\n", res.Message)
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, s := range res.Series {
			if len(res.Series) > 1 || s.Name != "" {
				fmt.Fprintf(tw, "   %s\t\t\n", s.Name)
			}
			for _, p := range s.Points {
				fmt.Fprintf(tw, "   \t%s\t%s\n", p.Label, formatValue(p.Value))
			}
		}
		if len(res.Boxes) > 0 {
			fmt.Fprintln(tw, "   GROUP\tN\tMIN\tQ1\tMEDIAN\tQ3\tMAX")
			for _, b := range res.Boxes {
				fmt.Fprintf(tw, "   %s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n", b.Group, b.Count, b.Min, b.Q1, b.Median, b.Q3, b.Max)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return writeWarnings(w, report.Warnings)
}

func writeWarnings(w io.Writer, warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nwarnings:\n  - %s\n", strings.Join(warnings, "\n  - "))
	return err
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
