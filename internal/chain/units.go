package chain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"blockfund/internal/funding"
)

// ToWei converts an ether amount to wei, dropping sub-wei digits.
func ToWei(ether decimal.Decimal) *big.Int {
	return ether.Shift(funding.WeiDecimals).BigInt()
}

// FromWei converts wei to ether.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -funding.WeiDecimals)
}
