package codec

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when a negative amount is given where only non-negative
// amounts are meaningful. Negative input is a caller bug and is never silently clamped.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ToChainInteger converts a human-readable decimal amount into the chain-native
// fixed-point integer string for the given precision, rounding toward zero. Residual
// fractional chain units are truncated.
func ToChainInteger(amount decimal.Decimal, decimals int32) (string, error) {
	if amount.IsNegative() {
		return "", ErrNegativeAmount
	}
	return amount.Shift(decimals).Truncate(0).String(), nil
}

// ToDecimal converts a chain-native fixed-point integer string back into a decimal
// amount for the given precision. An empty string is treated as zero.
func ToDecimal(integer string, decimals int32) (decimal.Decimal, error) {
	if integer == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(integer)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid chain integer %q: %w", integer, err)
	}
	return d.Shift(-decimals), nil
}
