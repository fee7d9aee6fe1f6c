package codec

import (
	"testing"

	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// well-known substrate dev account (Alice) on the generic network prefix
const (
	aliceSS58 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	aliceHex  = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
)

func TestDecodeSS58_KnownAddress(t *testing.T) {
	pubKey, prefix, err := DecodeSS58(aliceSS58)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), prefix)
	assert.Equal(t, aliceHex, ToHex(pubKey))
}

func TestSS58_RoundTrip(t *testing.T) {
	pubKey, prefix, err := DecodeSS58(aliceSS58)
	require.NoError(t, err)

	encoded, err := EncodeSS58(pubKey, prefix)
	require.NoError(t, err)
	assert.Equal(t, aliceSS58, encoded)
}

func TestSS58_RoundTrip_TwoBytePrefix(t *testing.T) {
	pubKey, err := FromHex(aliceHex)
	require.NoError(t, err)

	for _, prefix := range []uint16{64, 255, 2254, 16383} {
		encoded, err := EncodeSS58(pubKey, prefix)
		require.NoError(t, err)

		decoded, decodedPrefix, err := DecodeSS58(encoded)
		require.NoError(t, err)
		assert.Equal(t, prefix, decodedPrefix)
		assert.Equal(t, pubKey, decoded)
	}
}

func TestDecodeSS58_RejectsHexInput(t *testing.T) {
	// a hex string where an SS58 address was expected must fail closed, never be
	// reinterpreted as base58 bytes
	_, _, err := DecodeSS58(aliceHex)
	assert.ErrorAs(t, err, &persist.ErrInvalidAddress{})
}

func TestDecodeSS58_RejectsMalformedInput(t *testing.T) {
	for _, input := range []string{
		"",
		"not-base58-0OIl",
		"5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ", // corrupted checksum
		"3yZe7d",                                            // too short
	} {
		_, _, err := DecodeSS58(input)
		assert.Error(t, err, "input %q should not decode", input)
	}
}

func TestEncodeSS58_RejectsBadKeyLength(t *testing.T) {
	_, err := EncodeSS58([]byte{0x01, 0x02}, 42)
	assert.Error(t, err)
}

func TestAccountIDToHex(t *testing.T) {
	assert.Equal(t, persist.HexAddress("0x616c6963652e746573746e6574"), AccountIDToHex("alice.testnet"))
}
