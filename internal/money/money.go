package money

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Hundred is decimal 100, used for percentage math
var Hundred = decimal.NewFromInt(100)

// FromInt creates decimal from int
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// FromFloat creates decimal from a UI-entered float without rounding.
// Rounding happens only when a value is emitted externally.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// MustFromString parses decimal from string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Round2 rounds to 2 decimal places, half away from zero.
// Amounts here are never negative, so this is round-half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Div divides a by b, returns zero when b is zero
func Div(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return Zero
	}
	return a.Div(b)
}

// UnitHT derives the tax-exclusive unit price from a tax-inclusive one:
// priceTTC / (1 + rate/100). Result is unrounded.
func UnitHT(priceTTC decimal.Decimal, taxRatePercent decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(taxRatePercent.Div(Hundred))
	return Div(priceTTC, divisor)
}

// Percentage computes amount * (pct/100), unrounded
func Percentage(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(Hundred)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}

// WithinTolerance reports whether a and b differ by at most tol in absolute value
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
