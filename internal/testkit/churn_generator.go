package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"churndash/domain/churn"
)

// ChurnGeneratorConfig configures the synthetic churn dataset generator
type ChurnGeneratorConfig struct {
	CustomerCount int     `json:"customer_count"`
	ChurnRateBase float64 `json:"churn_rate_base"`
	DirtyRate     float64 `json:"dirty_rate"` // share of rows with a blank or malformed cell
	Seed          int64   `json:"seed"`
}

// DefaultChurnConfig returns defaults shaped like the telco churn dataset
func DefaultChurnConfig() ChurnGeneratorConfig {
	return ChurnGeneratorConfig{
		CustomerCount: 1000,
		ChurnRateBase: 0.26,
		DirtyRate:     0.01,
		Seed:          42,
	}
}

// ChurnDataGenerator generates deterministic customer rows
type ChurnDataGenerator struct {
	config ChurnGeneratorConfig
	rng    *rand.Rand
}

// NewChurnDataGenerator creates a new generator
func NewChurnDataGenerator(config ChurnGeneratorConfig) *ChurnDataGenerator {
	return &ChurnDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

var (
	contracts      = []string{"Month-to-month", "One year", "Two year"}
	paymentMethods = []string{"Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)"}
	multipleLines  = []string{"Yes", "No", "No phone service"}
)

// GenerateRows returns the header followed by CustomerCount data rows
func (g *ChurnDataGenerator) GenerateRows() [][]string {
	rows := make([][]string, 0, g.config.CustomerCount+1)
	rows = append(rows, Header())
	for i := 0; i < g.config.CustomerCount; i++ {
		rows = append(rows, g.customer(i).Cells())
	}
	return rows
}

// customer draws one row. Month-to-month contracts and short tenure push
// the churn probability up, as in the real dataset.
func (g *ChurnDataGenerator) customer(i int) Row {
	contract := contracts[g.weighted([]float64{0.55, 0.21, 0.24})]
	tenure := g.tenure(contract)
	monthly := math.Round((18+g.rng.Float64()*100)*100) / 100
	total := math.Round(monthly*float64(max(tenure, 1))*(0.95+g.rng.Float64()*0.1)*100) / 100

	p := g.config.ChurnRateBase
	switch contract {
	case "Month-to-month":
		p *= 1.6
	case "Two year":
		p *= 0.15
	}
	if tenure < 12 {
		p *= 1.3
	}

	row := Row{
		CustomerID:     fmt.Sprintf("%04d-%s", i+1, g.code()),
		Gender:         []string{"Male", "Female"}[g.rng.Intn(2)],
		Dependents:     yesNo(g.rng.Float64() < 0.3),
		MultipleLines:  multipleLines[g.weighted([]float64{0.42, 0.48, 0.10})],
		Contract:       contract,
		PaymentMethod:  paymentMethods[g.rng.Intn(len(paymentMethods))],
		Tenure:         strconv.Itoa(tenure),
		MonthlyCharges: strconv.FormatFloat(monthly, 'f', 2, 64),
		TotalCharges:   strconv.FormatFloat(total, 'f', 2, 64),
		Churn:          yesNo(g.rng.Float64() < math.Min(p, 0.95)),
	}

	if g.rng.Float64() < g.config.DirtyRate {
		switch g.rng.Intn(3) {
		case 0:
			row.TotalCharges = " "
		case 1:
			row.MonthlyCharges = "n/a"
		default:
			row.Dependents = ""
		}
	}
	return row
}

func (g *ChurnDataGenerator) tenure(contract string) int {
	switch contract {
	case "Two year":
		return 24 + g.rng.Intn(49)
	case "One year":
		return 12 + g.rng.Intn(61)
	}
	return g.rng.Intn(36)
}

func (g *ChurnDataGenerator) weighted(weights []float64) int {
	x := g.rng.Float64()
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}

func (g *ChurnDataGenerator) code() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 5)
	for i := range b {
		b[i] = letters[g.rng.Intn(len(letters))]
	}
	return string(b)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Header returns the dataset header in schema order
func Header() []string {
	header := make([]string, len(churn.AllColumns))
	for i, c := range churn.AllColumns {
		header[i] = c.String()
	}
	return header
}

// WriteCSV writes rows as comma-delimited text
func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
