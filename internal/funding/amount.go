package funding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"blockfund/internal/domain"
)

// WeiDecimals is the number of fractional digits of the chain's base unit.
const WeiDecimals = 18

// RawAmount is a user-entered amount. It decodes from either a JSON string or
// a JSON number without going through float64.
type RawAmount string

func (r *RawAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RawAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*r = RawAmount(n.String())
	return nil
}

// DonationAmount is a sanitized donation ready for the chain layer.
type DonationAmount struct {
	Value decimal.Decimal
	Wei   *big.Int
}

// String renders the amount with exactly WeiDecimals fractional digits.
func (a DonationAmount) String() string {
	return a.Value.StringFixed(WeiDecimals)
}

// SanitizeDonationAmount validates a raw donation amount against the
// campaign's remaining-to-target amount. Errors wrap domain.ErrInvalidAmount
// or domain.ErrExceedsRemaining.
func SanitizeDonationAmount(raw string, remaining decimal.Decimal) (DonationAmount, error) {
	value, err := ParseAmount(raw)
	if err != nil {
		return DonationAmount{}, err
	}
	if value.Sign() <= 0 {
		return DonationAmount{}, fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidAmount)
	}
	if !value.Truncate(WeiDecimals).Equal(value) {
		return DonationAmount{}, fmt.Errorf("%w: at most %d fractional digits are supported", domain.ErrInvalidAmount, WeiDecimals)
	}
	if value.GreaterThan(remaining) {
		return DonationAmount{}, fmt.Errorf("%w: %s requested, %s remaining", domain.ErrExceedsRemaining, value.String(), remaining.String())
	}
	return DonationAmount{
		Value: value,
		Wei:   value.Shift(WeiDecimals).BigInt(),
	}, nil
}
