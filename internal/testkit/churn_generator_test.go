package testkit

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	cfg := DefaultChurnConfig()
	cfg.CustomerCount = 50

	a := NewChurnDataGenerator(cfg).GenerateRows()
	b := NewChurnDataGenerator(cfg).GenerateRows()

	require.Len(t, a, 51)
	assert.Equal(t, a, b)
	assert.Equal(t, Header(), a[0])
}

func TestGeneratorProducesBothChurnClasses(t *testing.T) {
	cfg := DefaultChurnConfig()
	cfg.CustomerCount = 500
	cfg.DirtyRate = 0

	seen := map[string]int{}
	for _, row := range NewChurnDataGenerator(cfg).GenerateRows()[1:] {
		seen[row[9]]++
	}
	assert.Greater(t, seen["Yes"], 0)
	assert.Greater(t, seen["No"], seen["Yes"])
}

func TestCSVRoundTripsThroughEncodingCSV(t *testing.T) {
	text := CSV(
		Row{CustomerID: "1", Gender: "Male", PaymentMethod: "Credit card (automatic)", Churn: "Yes"},
		Row{CustomerID: "2", Gender: "Female", PaymentMethod: "Mailed check, paper", Churn: "No"},
	)

	rows, err := csv.NewReader(bytes.NewBufferString(text)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Mailed check, paper", rows[2][5])
}
