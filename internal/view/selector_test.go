package view

import (
	"testing"

	"churndash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", Unselected},
		{"eda", EDA},
		{"EDA Dashboard", EDA},
		{"kpi", KPI},
		{"kpis", KPI},
		{"KPIs Dashboard", KPI},
		{" Analytics ", Analytics},
		{"Analytics Dashboard", Analytics},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMode("predictions")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestSelectorTransitions(t *testing.T) {
	s := NewSelector()
	assert.Equal(t, Unselected, s.Current())

	assert.True(t, s.Select(KPI))
	assert.False(t, s.Select(KPI), "reselecting is idempotent")
	assert.True(t, s.Select(EDA))
	assert.True(t, s.Select(KPI))
	assert.True(t, s.Select(Unselected))

	assert.Equal(t, Unselected, s.Current())
	assert.Equal(t, []Transition{
		{From: Unselected, To: KPI},
		{From: KPI, To: EDA},
		{From: EDA, To: KPI},
		{From: KPI, To: Unselected},
	}, s.History())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "KPIs Dashboard", KPI.Label())
	assert.Equal(t, "unselected", Unselected.String())
	for _, m := range Modes {
		parsed, err := ParseMode(m.Label())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
}

func TestValid(t *testing.T) {
	for _, m := range append([]Mode{Unselected}, Modes...) {
		assert.True(t, m.Valid(), m.String())
	}
	assert.False(t, Mode("predict").Valid())
}
