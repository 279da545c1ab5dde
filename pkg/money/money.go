// Package money renders currency-like values for display. It is one-way: output is
// never parsed back.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is shown for unknown values.
const Placeholder = "—"

const symbol = "$"

// Format renders v as dollars with two decimals and thousands separators.
// nil, NaN and infinite values render as Placeholder.
func Format(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatValue(*v)
}

// FormatValue is Format for a known value. Rounding works on the shortest decimal
// form of v, so 1.005 renders as $1.01.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}

	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.Sign() < 0 {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + symbol + groupThousands(intPart) + "." + frac
}

// Percent renders a 0..1 ratio as a percentage with the given number of decimals.
func Percent(v *float64, digits int) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Placeholder
	}
	if digits < 0 {
		digits = 0
	}
	return decimal.NewFromFloat(*v).Mul(decimal.NewFromInt(100)).StringFixed(int32(digits)) + "%"
}

// Range renders a low/high pair as "low ~ high".
func Range(low, high *float64) string {
	return Format(low) + " ~ " + Format(high)
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(n + n/3)
	for i, ch := range digits {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return b.String()
}
