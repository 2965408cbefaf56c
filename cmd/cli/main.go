package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"churndash/adapters/tabular"
	"churndash/domain/churn"
	"churndash/internal"
	"churndash/internal/analytics"
	"churndash/internal/config"
	"churndash/internal/dataset"
	"churndash/internal/eda"
	"churndash/internal/kpi"
	"churndash/internal/testkit"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "churndash-cli",
		Short:         "Churn dashboard views on the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newKPICmd(),
		newAnalyticsCmd(),
		newEDACmd(),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// viewFlags are shared by the three view commands
type viewFlags struct {
	data   string
	format string
	bins   int
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.data, "data", envOr("DATA_FILE", config.DefaultDataFile), "Path to the churn dataset (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text, json or yaml")
	cmd.Flags().IntVar(&f.bins, "bins", analytics.DefaultBins, "Histogram bin count")
}

// load reads the dataset, failing the command on a load error
func (f *viewFlags) load(ctx context.Context) (*churn.Table, error) {
	logger := internal.NewLogger(internal.LogLevelWarn, "console")
	loader := dataset.NewLoader(tabular.NewFileSource(logger), nil, logger, nil)
	result := loader.Load(ctx, f.data)
	if result.Err != nil {
		return nil, result.Err
	}
	return result.Table, nil
}

func newKPICmd() *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Print the KPI cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			report := kpi.NewEngine(internal.NewNopLogger(), nil).Compute(cmd.Context(), table)
			return write(cmd.OutOrStdout(), flags.format, report, func(w io.Writer) error {
				return writeKPIText(w, report)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newAnalyticsCmd() *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print the analytical question results",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			report := analytics.NewCatalog(flags.bins, internal.NewNopLogger(), nil).Compute(cmd.Context(), table)
			return write(cmd.OutOrStdout(), flags.format, report, func(w io.Writer) error {
				return writeChartsText(w, report)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newEDACmd() *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "eda",
		Short: "Print the exploratory distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			report := eda.NewBuilder(flags.bins, internal.NewNopLogger(), nil).Compute(cmd.Context(), table)
			return write(cmd.OutOrStdout(), flags.format, report, func(w io.Writer) error {
				return writeChartsText(w, report)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultChurnConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic churn dataset as CSV",
		Long: `Write a deterministic synthetic churn dataset.

Example: churndash-cli generate --rows 5000 --seed 7 --out data/cleaned_merged.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.CustomerCount < 0 {
				return fmt.Errorf("--rows must not be negative")
			}
			rows := testkit.NewChurnDataGenerator(cfg).GenerateRows()

			if out == "" || out == "-" {
				return testkit.WriteCSV(cmd.OutOrStdout(), rows)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			if err := testkit.WriteCSV(f, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d customers to %s\n", len(rows)-1, out)
			return f.Close()
		},
	}

	cmd.Flags().IntVar(&cfg.CustomerCount, "rows", cfg.CustomerCount, "Number of customers to generate")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for deterministic output")
	cmd.Flags().Float64Var(&cfg.DirtyRate, "dirty-rate", cfg.DirtyRate, "Share of rows with a blank or malformed cell")
	cmd.Flags().StringVar(&out, "out", "", "Output file (stdout when empty)")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
