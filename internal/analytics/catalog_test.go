package analytics

import (
	"context"
	"math"
	"testing"

	"churndash/domain/churn"
	"churndash/domain/dashboard"
	"churndash/internal"
	"churndash/internal/errors"
	"churndash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(bins int) *Catalog {
	return NewCatalog(bins, internal.NewNopLogger(), nil)
}

func repeat(rec churn.CustomerRecord, n int) []churn.CustomerRecord {
	out := make([]churn.CustomerRecord, n)
	for i := range out {
		out[i] = rec
	}
	return out
}

func TestPaymentMethodQuestions(t *testing.T) {
	records := append(
		repeat(testkit.Customer("Male", true, true, "CreditCard"), 3),
		repeat(testkit.Customer("Female", true, true, "CreditCard"), 2)...,
	)

	report := newTestCatalog(0).Compute(context.Background(), testkit.FullTable(records...))

	q1, ok := report.Get("q1_male_dependents_payment")
	require.True(t, ok)
	require.Equal(t, dashboard.StatusOK, q1.Status)
	assert.Equal(t, []dashboard.Point{{Label: "CreditCard", Value: 3}}, q1.Series[0].Points)

	q2, _ := report.Get("q2_female_dependents_payment")
	assert.Equal(t, []dashboard.Point{{Label: "CreditCard", Value: 2}}, q2.Series[0].Points)
}

func TestPaymentMethodsOrderedByCount(t *testing.T) {
	records := []churn.CustomerRecord{
		testkit.Customer("Male", true, true, "Mailed check"),
		testkit.Customer("Male", true, true, "Bank transfer"),
		testkit.Customer("Male", true, true, "Bank transfer"),
		testkit.Customer("Male", false, true, "Bank transfer"),
		testkit.Customer("Male", true, false, "Mailed check"),
	}

	report := newTestCatalog(0).Compute(context.Background(), testkit.FullTable(records...))

	q1, _ := report.Get("q1_male_dependents_payment")
	assert.Equal(t, []dashboard.Point{
		{Label: "Bank transfer", Value: 2},
		{Label: "Mailed check", Value: 1},
	}, q1.Series[0].Points)
}

func TestChurnedTotalChargesSharesBinEdges(t *testing.T) {
	male1 := testkit.Customer("Male", false, true, "x")
	male1.TotalCharges = churn.Num(100)
	male2 := testkit.Customer("Male", false, true, "x")
	male2.TotalCharges = churn.Num(200)
	female := testkit.Customer("Female", false, true, "x")
	female.TotalCharges = churn.Num(150)
	stayed := testkit.Customer("Female", false, false, "x")
	stayed.TotalCharges = churn.Num(5000)

	report := newTestCatalog(2).Compute(context.Background(), testkit.FullTable(male1, male2, female, stayed))

	q3, _ := report.Get("q3_churned_total_charges_by_gender")
	require.Equal(t, dashboard.StatusOK, q3.Status)
	require.Len(t, q3.Series, 2)
	assert.Equal(t, "Female", q3.Series[0].Name)
	assert.Equal(t, "Male", q3.Series[1].Name)
	assert.Equal(t, []float64{0, 1}, values(q3.Series[0]))
	assert.Equal(t, []float64{1, 1}, values(q3.Series[1]))
	assert.Equal(t, q3.Series[0].Points[0].Label, q3.Series[1].Points[0].Label)
}

func TestMeanTotalChargesByContract(t *testing.T) {
	a := testkit.Customer("Male", false, true, "x")
	a.Contract, a.TotalCharges = "One year", churn.Num(100)
	b := testkit.Customer("Male", false, true, "x")
	b.Contract, b.TotalCharges = "One year", churn.Num(300)
	c := testkit.Customer("Female", false, true, "x")
	c.Contract, c.TotalCharges = "Month-to-month", churn.Num(50)
	d := testkit.Customer("Female", false, true, "x")
	d.Contract, d.TotalCharges = "Two year", churn.Number{}

	report := newTestCatalog(0).Compute(context.Background(), testkit.FullTable(a, b, c, d))

	q5, _ := report.Get("q5_churned_mean_total_charges_by_contract")
	require.Equal(t, dashboard.StatusOK, q5.Status)
	assert.Equal(t, []dashboard.Point{
		{Label: "Month-to-month", Value: 50},
		{Label: "One year", Value: 200},
	}, q5.Series[0].Points)
}

func TestMeanByContractWithoutChurnedCustomersIsComputationError(t *testing.T) {
	report := newTestCatalog(0).Compute(context.Background(),
		testkit.FullTable(testkit.Customer("Male", false, false, "x")))

	q5, _ := report.Get("q5_churned_mean_total_charges_by_contract")
	assert.Equal(t, dashboard.StatusError, q5.Status)
	assert.Contains(t, q5.Message, "q5_churned_mean_total_charges_by_contract")
	assert.Empty(t, q5.Series)
}

func TestShareQuestions(t *testing.T) {
	records := []churn.CustomerRecord{
		testkit.Customer("Male", false, true, "x"),
		testkit.Customer("Female", false, false, "x"),
		testkit.Customer("Female", false, false, "x"),
	}

	report := newTestCatalog(0).Compute(context.Background(), testkit.FullTable(records...))

	q7, _ := report.Get("q7_monthly_charges_share_by_gender")
	assert.Equal(t, []dashboard.Point{{Label: "Female", Value: 100}, {Label: "Male", Value: 50}}, q7.Series[0].Points)

	q8, _ := report.Get("q8_total_charges_share_by_churn")
	assert.Equal(t, []dashboard.Point{{Label: "No", Value: 1200}, {Label: "Yes", Value: 600}}, q8.Series[0].Points)
}

func TestMultipleLinesByGender(t *testing.T) {
	a := testkit.Customer("Male", false, true, "x")
	a.MultipleLines = "Yes"
	b := testkit.Customer("Male", false, true, "x")
	c := testkit.Customer("Female", false, true, "x")
	c.MultipleLines = "No phone service"

	report := newTestCatalog(0).Compute(context.Background(), testkit.FullTable(a, b, c))

	q6, _ := report.Get("q6_churned_multiple_lines_by_gender")
	require.Len(t, q6.Series, 2)
	assert.Equal(t, dashboard.Series{Name: "Female", Points: []dashboard.Point{{Label: "No phone service", Value: 1}}}, q6.Series[0])
	assert.Equal(t, dashboard.Series{Name: "Male", Points: []dashboard.Point{{Label: "No", Value: 1}, {Label: "Yes", Value: 1}}}, q6.Series[1])
}

func TestEmptyTableSkipsEveryQuestion(t *testing.T) {
	report := newTestCatalog(0).Compute(context.Background(), churn.EmptyTable())

	require.Len(t, report.Results, len(Keys()))
	for _, res := range report.Results {
		assert.Equal(t, dashboard.StatusSkipped, res.Status, res.Key)
		assert.Contains(t, res.Message, "data not available")
	}
}

func TestMissingColumnOnlySkipsDependentQuestions(t *testing.T) {
	records := repeat(testkit.Customer("Male", true, true, "CreditCard"), 2)
	table := testkit.TableWithout(records, churn.ColPaymentMethod)

	report := newTestCatalog(0).Compute(context.Background(), table)

	for _, key := range []string{"q1_male_dependents_payment", "q2_female_dependents_payment"} {
		res, _ := report.Get(key)
		assert.Equal(t, dashboard.StatusSkipped, res.Status)
		assert.Equal(t, []string{"PaymentMethod"}, res.Missing)
	}
	q4, _ := report.Get("q4_total_charges_dispersion_by_gender")
	assert.Equal(t, dashboard.StatusOK, q4.Status)
}

func TestRunnerRecoversFromPanics(t *testing.T) {
	runner := NewRunner("analytics", 0, internal.NewNopLogger(), nil)
	charts := []Chart{
		{Key: "q7_monthly_charges_share_by_gender", Kind: dashboard.ChartPie, Build: func(*churn.Table, int) (Output, error) {
			var m map[string]int
			m["boom"]++
			return Output{}, nil
		}},
		{Key: "q8_total_charges_share_by_churn", Kind: dashboard.ChartPie, Build: func(*churn.Table, int) (Output, error) {
			return Output{Series: []dashboard.Series{{Name: "ok"}}}, nil
		}},
	}

	report := runner.Run(testkit.FullTable(testkit.Customer("Male", false, true, "x")), charts)

	assert.Equal(t, dashboard.StatusError, report.Results[0].Status)
	assert.Equal(t, dashboard.StatusOK, report.Results[1].Status)
}

func TestRunnerKeepsAppErrorCodes(t *testing.T) {
	runner := NewRunner("analytics", 0, internal.NewNopLogger(), nil)
	charts := []Chart{{Key: "q8_total_charges_share_by_churn", Build: func(*churn.Table, int) (Output, error) {
		return Output{}, errors.MissingColumns("Churn")
	}}}

	report := runner.Run(testkit.FullTable(testkit.Customer("Male", false, true, "x")), charts)

	assert.Equal(t, dashboard.StatusSkipped, report.Results[0].Status)
}

func TestEdges(t *testing.T) {
	edges, err := Edges(4, []float64{0}, []float64{10})
	require.NoError(t, err)
	require.Len(t, edges, 5)
	assert.Equal(t, []float64{0, 2.5, 5, 7.5}, edges[:4])
	assert.Greater(t, edges[4], 10.0)

	single, err := Edges(2, []float64{3, 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, single[0])
	assert.Greater(t, single[2], 3.0)

	_, err = Edges(2)
	assert.Error(t, err)
}

func TestHistogramIncludesMaximum(t *testing.T) {
	edges, _ := Edges(4, []float64{0, 10})
	series := Histogram("tenure", []float64{10, 0, 3, 10}, edges)

	assert.Equal(t, []float64{1, 1, 0, 2}, values(series))
	assert.Equal(t, "[0.00, 2.50)", series.Points[0].Label)
}

func TestBox(t *testing.T) {
	box, err := Box("Male", []float64{5, 1, 4, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, dashboard.BoxSummary{Group: "Male", Count: 5, Min: 1, Q1: 1.5, Median: 3, Q3: 4.5, Max: 5}, box)

	single, err := Box("Female", []float64{7})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(single.Q1))
	assert.Equal(t, 7.0, single.Q3)

	_, err = Box("none", nil)
	assert.Error(t, err)
}

func values(s dashboard.Series) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}
