package codec

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"golang.org/x/crypto/blake2b"
)

// ss58Prelude is mixed into the checksum so an SS58 checksum can never collide with a
// checksum computed over the bare payload.
var ss58Prelude = []byte("SS58PRE")

const publicKeyLength = 32

// DecodeSS58 decodes a chain-native SS58 address into its raw 32-byte public key and the
// network prefix it was encoded with. Input that is already 0x-hex is rejected outright:
// reinterpreting hex bytes as base58 silently produced garbage addresses in the past, so
// the mismatch is a checked precondition here.
func DecodeSS58(address string) ([]byte, uint16, error) {
	if address == "" || strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		return nil, 0, persist.ErrInvalidAddress{Address: address, Side: persist.SideAppchain}
	}

	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, persist.ErrInvalidAddress{Address: address, Side: persist.SideAppchain}
	}

	var prefix uint16
	var prefixLen int
	switch {
	case len(raw) < 1:
		return nil, 0, persist.ErrInvalidAddress{Address: address, Side: persist.SideAppchain}
	case raw[0] < 64:
		prefix = uint16(raw[0])
		prefixLen = 1
	case raw[0] < 128:
		if len(raw) < 2 {
			return nil, 0, persist.ErrInvalidAddress{Address: address, Side: persist.SideAppchain}
		}
		// two-byte prefix: low 6 bits of the first byte are the upper bits of the ident
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0b0011_1111
		prefix = uint16(lower) | uint16(upper)<<8
		prefixLen = 2
	default:
		return nil, 0, persist.ErrInvalidAddress{Address: address, Side: persist.SideAppchain}
	}

	if len(raw) != prefixLen+publicKeyLength+2 {
		return nil, 0, persist.ErrInvalidAddress{Address: address, Side: persist.SideAppchain}
	}

	payload := raw[:len(raw)-2]
	checksum := raw[len(raw)-2:]
	expected := ss58Checksum(payload)
	if checksum[0] != expected[0] || checksum[1] != expected[1] {
		return nil, 0, persist.ErrInvalidAddress{Address: address, Side: persist.SideAppchain}
	}

	pubKey := make([]byte, publicKeyLength)
	copy(pubKey, raw[prefixLen:prefixLen+publicKeyLength])
	return pubKey, prefix, nil
}

// EncodeSS58 encodes a raw 32-byte public key as an SS58 address for the given network
// prefix. It is the inverse of DecodeSS58: for any valid address a,
// EncodeSS58(DecodeSS58(a)) == a.
func EncodeSS58(pubKey []byte, prefix uint16) (string, error) {
	if len(pubKey) != publicKeyLength {
		return "", persist.ErrInvalidAddress{Address: hexutil.Encode(pubKey), Side: persist.SideAppchain}
	}

	var payload []byte
	switch {
	case prefix < 64:
		payload = append(payload, byte(prefix))
	case prefix < 16384:
		first := byte(prefix&0b0000_0000_1111_1100)>>2 | 0b0100_0000
		second := byte(prefix>>8) | byte(prefix&0b0000_0000_0000_0011)<<6
		payload = append(payload, first, second)
	default:
		return "", persist.ErrInvalidAddress{Address: hexutil.Encode(pubKey), Side: persist.SideAppchain}
	}

	payload = append(payload, pubKey...)
	checksum := ss58Checksum(payload)
	payload = append(payload, checksum[:2]...)
	return base58.Encode(payload), nil
}

// ToHex encodes raw bytes as a 0x-prefixed hex string
func ToHex(b []byte) string {
	return hexutil.Encode(b)
}

// FromHex decodes a 0x-prefixed hex string into raw bytes
func FromHex(s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, persist.ErrInvalidAddress{Address: s, Side: persist.SideAppchain}
	}
	return b, nil
}

// AccountIDToHex re-encodes a home-ledger account id as the hex payload appchains expect
// for home-side receivers.
func AccountIDToHex(account persist.AccountID) persist.HexAddress {
	return persist.HexAddress(hexutil.Encode([]byte(account)))
}

func ss58Checksum(payload []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Prelude)
	h.Write(payload)
	return h.Sum(nil)[:2]
}
