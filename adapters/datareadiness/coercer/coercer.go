package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"churndash/domain/churn"
)

// TypeCoercer turns raw cells into typed churn values
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	TrueTokens      []string `json:"true_tokens"`
	FalseTokens     []string `json:"false_tokens"`
	CurrencySymbols []string `json:"currency_symbols"`
	CollapseSpaces  bool     `json:"collapse_spaces"` // Whether to collapse internal whitespace in categories
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		TrueTokens:      []string{"true", "t", "yes", "y", "on", "1"},
		FalseTokens:     []string{"false", "f", "no", "n", "off", "0"},
		CurrencySymbols: []string{"$", "€", "£", "¥", "USD", "EUR", "GBP"},
		CollapseSpaces:  true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

var whitespace = regexp.MustCompile(`\s+`)

// CoerceNumber parses a numeric cell. Anything that does not parse becomes
// missing rather than zero.
func (c *TypeCoercer) CoerceNumber(raw string) churn.Number {
	if v, ok := c.tryParseNumeric(raw); ok {
		return churn.Num(v)
	}
	return churn.Number{}
}

// CoerceFlag parses a boolean-like cell. Blank cells are missing; cells that
// are neither truthy nor falsy are kept verbatim as invalid.
func (c *TypeCoercer) CoerceFlag(raw string) churn.Flag {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return churn.Flag{State: churn.FlagMissing}
	}
	if b, ok := c.tryParseBoolean(trimmed); ok {
		if b {
			return churn.True
		}
		return churn.False
	}
	return churn.Flag{State: churn.FlagInvalid, Raw: raw}
}

// CoerceText normalizes a categorical cell without changing its case
func (c *TypeCoercer) CoerceText(raw string) string {
	s := strings.TrimSpace(raw)
	if c.config.CollapseSpaces {
		s = whitespace.ReplaceAllString(s, " ")
	}
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// tryParseNumeric parses with lenient rules: currency symbols, thousands
// separators and accounting-style (123) negatives are accepted
func (c *TypeCoercer) tryParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range c.config.CurrencySymbols {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	if cleanVal == "" {
		return 0, false
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	if isNegative {
		val = -val
	}
	return val, true
}

// tryParseBoolean accepts the configured tokens plus numeric 1/0 spellings such as "1.0"
func (c *TypeCoercer) tryParseBoolean(strVal string) (bool, bool) {
	lowerVal := strings.ToLower(strVal)

	for _, token := range c.config.TrueTokens {
		if lowerVal == token {
			return true, true
		}
	}
	for _, token := range c.config.FalseTokens {
		if lowerVal == token {
			return false, true
		}
	}

	if f, err := strconv.ParseFloat(lowerVal, 64); err == nil {
		switch f {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}
