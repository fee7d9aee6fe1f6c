package persist

import (
	"fmt"
)

const (
	// SideHome represents the home ledger side of the bridge
	SideHome BridgeSide = "home"
	// SideAppchain represents the appchain side of the bridge
	SideAppchain BridgeSide = "appchain"
)

// BridgeSide identifies one side of a bridge; a single logical asset may carry different
// precision on each side, so conversions always name the side they operate on.
type BridgeSide string

// AppchainID represents the identifier of an appchain
type AppchainID string

func (a AppchainID) String() string {
	return string(a)
}

// AccountID represents a home-ledger account identifier
type AccountID string

func (a AccountID) String() string {
	return string(a)
}

// NativeAddress represents an appchain address in its chain-native SS58 encoding
type NativeAddress string

func (a NativeAddress) String() string {
	return string(a)
}

// HexAddress represents a raw public key or account payload as 0x-prefixed hex
type HexAddress string

func (a HexAddress) String() string {
	return string(a)
}

// ContractID represents a home-ledger contract identifier
type ContractID string

func (c ContractID) String() string {
	return string(c)
}

// CollectibleClassID represents an appchain asset-class identifier for collectibles
type CollectibleClassID uint32

// AppchainDescriptor describes a single registered appchain. Descriptors are immutable
// once fetched; the catalog refreshes them on a timer.
type AppchainDescriptor struct {
	ID             AppchainID         `json:"appchain_id"`
	AnchorContract ContractID         `json:"anchor_contract"`
	RPCEndpoint    string             `json:"rpc_endpoint"`
	SS58Prefix     uint16             `json:"ss58_prefix"`
	NativeToken    TokenAsset         `json:"native_token"`
	NFTClasses     []CollectibleClassID `json:"nft_classes"`
}

// DecimalsPair holds the precision of an asset on each side of the bridge. Wrapping can
// change precision, so the two values are not required to match.
type DecimalsPair struct {
	Home     int32 `json:"home"`
	Appchain int32 `json:"appchain"`
}

// SameDecimals returns a DecimalsPair with identical precision on both sides
func SameDecimals(d int32) DecimalsPair {
	return DecimalsPair{Home: d, Appchain: d}
}

// On returns the decimals for the given bridge side
func (d DecimalsPair) On(side BridgeSide) int32 {
	if side == SideAppchain {
		return d.Appchain
	}
	return d.Home
}

// TokenAsset represents a bridgeable fungible token. A nil AssetID means the asset is the
// appchain's native asset wrapped on the home ledger.
type TokenAsset struct {
	ContractID ContractID   `json:"contract_id"`
	AssetID    *uint32      `json:"asset_id,omitempty"`
	Decimals   DecimalsPair `json:"decimals"`
	Symbol     string       `json:"symbol"`
	Icon       string       `json:"icon,omitempty"`
}

// IsNative reports whether the asset is the wrapped native asset of its appchain
func (t TokenAsset) IsNative() bool {
	return t.AssetID == nil
}

// Equals compares two assets by contract id
func (t TokenAsset) Equals(other TokenAsset) bool {
	return t.ContractID == other.ContractID
}

// DecimalsOn returns the asset's precision on the given bridge side
func (t TokenAsset) DecimalsOn(side BridgeSide) int32 {
	return t.Decimals.On(side)
}

// Collectible represents a non-fungible instance. A collectible transfer always moves
// exactly one instance and never carries an amount.
type Collectible struct {
	InstanceID uint64             `json:"instance_id"`
	ClassID    CollectibleClassID `json:"class_id"`
	Owner      NativeAddress      `json:"owner"`
	Name       string             `json:"name,omitempty"`
	MediaURL   string             `json:"media_url,omitempty"`
}

func (c Collectible) String() string {
	return fmt.Sprintf("collectible(class=%d, instance=%d)", c.ClassID, c.InstanceID)
}
