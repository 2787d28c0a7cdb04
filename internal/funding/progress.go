package funding

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"blockfund/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Bounds on parsed amounts. Rescaling a decimal costs time proportional to
// its exponent, so inputs outside these bounds are rejected before any
// arithmetic runs.
const (
	maxAmountLength   = 80
	maxAmountExponent = 80
)

// ParseAmount parses a decimal amount, tolerating surrounding whitespace.
// Errors wrap domain.ErrInvalidAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}
	if len(trimmed) > maxAmountLength {
		return decimal.Decimal{}, fmt.Errorf("%w: amount is too long", domain.ErrInvalidAmount)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, raw)
	}
	if exp := value.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is out of range", domain.ErrInvalidAmount, raw)
	}
	return value, nil
}

// CalculateProgress returns collected/target as a percentage in [0,100].
// A non-positive target or an unparseable input yields 0.
func CalculateProgress(collected, target string) float64 {
	c, err := ParseAmount(collected)
	if err != nil {
		return 0
	}
	t, err := ParseAmount(target)
	if err != nil {
		return 0
	}
	return Progress(c, t)
}

// Progress is CalculateProgress over parsed amounts.
func Progress(collected, target decimal.Decimal) float64 {
	if target.Sign() <= 0 {
		return 0
	}
	pct := collected.Div(target).Mul(hundred)
	if pct.Sign() <= 0 {
		return 0
	}
	if pct.GreaterThan(hundred) {
		return 100
	}
	f, _ := pct.Float64()
	return f
}

// CalculateRemainingAmount returns max(0, target-collected). Unparseable
// inputs yield zero so callers capping donations fail closed.
func CalculateRemainingAmount(collected, target string) decimal.Decimal {
	c, err := ParseAmount(collected)
	if err != nil {
		return decimal.Zero
	}
	t, err := ParseAmount(target)
	if err != nil {
		return decimal.Zero
	}
	return Remaining(c, t)
}

// Remaining is CalculateRemainingAmount over parsed amounts.
func Remaining(collected, target decimal.Decimal) decimal.Decimal {
	diff := target.Sub(collected)
	if diff.Sign() < 0 {
		return decimal.Zero
	}
	return diff
}

// IsCompleted reports whether a campaign reached its target or passed its
// deadline.
func IsCompleted(collected, target decimal.Decimal, deadline, now time.Time) bool {
	return collected.GreaterThanOrEqual(target) || now.After(deadline)
}

// IsActive reports whether a campaign still accepts donations.
func IsActive(deadline, now time.Time) bool {
	return deadline.After(now)
}
