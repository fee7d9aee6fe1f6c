package codec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToChainInteger(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int32
		want     string
	}{
		{name: "whole amount", amount: "12", decimals: 18, want: "12000000000000000000"},
		{name: "fractional amount", amount: "1.5", decimals: 6, want: "1500000"},
		{name: "zero", amount: "0", decimals: 12, want: "0"},
		{name: "sub-unit residue truncates toward zero", amount: "0.1234567", decimals: 6, want: "123456"},
		{name: "zero decimals", amount: "7.9", decimals: 0, want: "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToChainInteger(decimal.RequireFromString(tt.amount), tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToChainInteger_NegativeAmount(t *testing.T) {
	_, err := ToChainInteger(decimal.RequireFromString("-1"), 6)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestToDecimal(t *testing.T) {
	got, err := ToDecimal("1500000", 6)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1.5")))
}

func TestToDecimal_EmptyIsZero(t *testing.T) {
	got, err := ToDecimal("", 18)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestToDecimal_Invalid(t *testing.T) {
	_, err := ToDecimal("not-a-number", 18)
	assert.Error(t, err)
}

// conversions must be stable under a round trip, up to truncation at the chain's
// precision
func TestAmount_RoundTripUnderTruncation(t *testing.T) {
	for _, tt := range []struct {
		amount   string
		decimals int32
		want     string
	}{
		{amount: "1.5", decimals: 6, want: "1.5"},
		{amount: "0.1234567", decimals: 6, want: "0.123456"},
		{amount: "100", decimals: 0, want: "100"},
	} {
		integer, err := ToChainInteger(decimal.RequireFromString(tt.amount), tt.decimals)
		require.NoError(t, err)
		back, err := ToDecimal(integer, tt.decimals)
		require.NoError(t, err)
		assert.True(t, back.Equal(decimal.RequireFromString(tt.want)), "amount %s decimals %d: got %s", tt.amount, tt.decimals, back)
	}
}

// the same logical asset can carry different precision per side; the caller always names
// the side explicitly
func TestAmount_PerSideDecimals(t *testing.T) {
	homeSide, err := ToChainInteger(decimal.RequireFromString("1"), 18)
	require.NoError(t, err)
	appchainSide, err := ToChainInteger(decimal.RequireFromString("1"), 12)
	require.NoError(t, err)

	assert.Equal(t, "1000000000000000000", homeSide)
	assert.Equal(t, "1000000000000", appchainSide)
}
