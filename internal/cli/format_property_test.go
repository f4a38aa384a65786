package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatMoneyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	grouped := regexp.MustCompile(`^-?\d{1,3}(,\d{3})*\.\d{2}$`)

	properties.Property("FormatMoney groups digits in threes", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatMoney(amount)
			if !grouped.MatchString(formatted) {
				t.Logf("bad grouping for %f: %s", amount, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatMoney preserves the value", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatMoney(amount)
			parsed, err := strconv.ParseFloat(strings.ReplaceAll(formatted, ",", ""), 64)
			if err != nil {
				t.Logf("unparseable output for %f: %s", amount, formatted)
				return false
			}
			rounded := math.Round(amount*100) / 100
			if math.Abs(parsed-rounded) > 0.005 {
				t.Logf("value drift: original=%f formatted=%s parsed=%f", amount, formatted, parsed)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("FormatQuantity round-trips whole lots", prop.ForAll(
		func(lots int64) bool {
			qty := float64(lots * 100)
			formatted := FormatQuantity(qty)
			if strings.Contains(formatted, ".") {
				t.Logf("whole quantity %f formatted with decimals: %s", qty, formatted)
				return false
			}
			parsed, err := strconv.ParseInt(strings.ReplaceAll(formatted, ",", ""), 10, 64)
			if err != nil || parsed != lots*100 {
				t.Logf("round-trip failed: qty=%f formatted=%s", qty, formatted)
				return false
			}
			return true
		},
		gen.Int64Range(-1e7, 1e7),
	))

	properties.TestingRun(t)
}

func TestFormatMoneyExamples(t *testing.T) {
	testCases := []struct {
		amount   float64
		expected string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{999.99, "999.99"},
		{1000, "1,000.00"},
		{1234567.89, "1,234,567.89"},
		{-1234.5, "-1,234.50"},
		{10000000, "10,000,000.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatMoney(tc.amount); got != tc.expected {
				t.Errorf("FormatMoney(%f) = %s, want %s", tc.amount, got, tc.expected)
			}
		})
	}
}

func TestFormatPercentExamples(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0.00%"},
		{0.015, "+1.50%"},
		{-0.025, "-2.50%"},
		{1, "+100.00%"},
		{-1, "-100.00%"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatPercent(tc.value); got != tc.expected {
				t.Errorf("FormatPercent(%f) = %s, want %s", tc.value, got, tc.expected)
			}
		})
	}
}

func TestFormatQuantityExamples(t *testing.T) {
	testCases := []struct {
		qty      float64
		expected string
	}{
		{0, "0"},
		{100, "100"},
		{-2500, "-2,500"},
		{1500000, "1,500,000"},
		{12.5, "12.50"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			if got := FormatQuantity(tc.qty); got != tc.expected {
				t.Errorf("FormatQuantity(%f) = %s, want %s", tc.qty, got, tc.expected)
			}
		})
	}
}
