package repo

import (
	"fmt"

	"github.com/shopspring/decimal"

	"blockfund/internal/domain"
)

// parseNumeric converts a numeric column selected as text. Rows whose amounts
// do not parse are rejected rather than treated as zero.
func parseNumeric(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q", domain.ErrMalformedRecord, column, raw)
	}
	return d, nil
}
