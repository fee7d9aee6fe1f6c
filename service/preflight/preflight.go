package preflight

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/shopspring/decimal"
	"github.com/spanbridge/go-spanbridge/service/codec"
	"github.com/spanbridge/go-spanbridge/service/persist"
)

// home-ledger account ids: lowercase alphanumeric segments joined by . with optional -_
// separators inside a segment, 2 to 64 characters total
var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// TargetStatus is the result of a target-account preflight check
type TargetStatus struct {
	Exists bool `json:"exists"`
	// NeedsStorageDeposit is set when the target must make a one-time storage
	// registration before it can hold a balance of the asset. Only fungible transfers
	// into the home ledger's token-contract model require this.
	NeedsStorageDeposit bool `json:"needs_storage_deposit"`
}

// HomeReader is the subset of the home-ledger client the validator needs
type HomeReader interface {
	AccountExists(ctx context.Context, accountID persist.AccountID) (bool, error)
	ViewFunction(ctx context.Context, contractID persist.ContractID, method string, args interface{}) (json.RawMessage, error)
}

// AppchainReader is the subset of the appchain client the validator needs
type AppchainReader interface {
	AccountProviders(ctx context.Context, pubKeyHex string) (uint32, error)
}

// Validator decides, before submission, whether a transfer is permitted and computes
// bounds. It is stateless and synchronous given its chain clients; debouncing of
// keystroke-driven input is the caller's responsibility, the validator itself never
// schedules anything.
type Validator struct {
	home        HomeReader
	appchain    AppchainReader
	protocolFee decimal.Decimal
}

// NewValidator creates a preflight validator. protocolFee is the fee charged on the
// home ledger for bridging its native wrapped asset out.
func NewValidator(home HomeReader, appchain AppchainReader, protocolFee decimal.Decimal) *Validator {
	return &Validator{home: home, appchain: appchain, protocolFee: protocolFee}
}

// CheckTargetAccount validates a transfer target on the given bridge side. Malformed
// accounts fail with ErrInvalidAddress before any network call. token is nil for
// collectible transfers, which never require a storage deposit.
func (v *Validator) CheckTargetAccount(ctx context.Context, side persist.BridgeSide, account string, token *persist.TokenAsset) (TargetStatus, error) {
	if side == persist.SideAppchain {
		return v.checkAppchainAccount(ctx, account)
	}
	return v.checkHomeAccount(ctx, account, token)
}

// MaxTransferable returns the maximum amount of an asset that can leave the sending
// chain. The protocol fee is paid in the native wrapped asset itself, so it is
// subtracted from the balance only on that one path: the home→appchain direction of the
// native wrapped asset. Every other asset/direction combination pays its fee in a
// different asset and transfers the full balance.
func (v *Validator) MaxTransferable(balance decimal.Decimal, token persist.TokenAsset, direction persist.Direction) decimal.Decimal {
	if direction == persist.DirectionHomeToAppchain && token.IsNative() {
		max := balance.Sub(v.protocolFee)
		if max.IsNegative() {
			return decimal.Zero
		}
		return max
	}
	return balance
}

func (v *Validator) checkAppchainAccount(ctx context.Context, account string) (TargetStatus, error) {
	pubKey, _, err := codec.DecodeSS58(account)
	if err != nil {
		return TargetStatus{}, err
	}

	providers, err := v.appchain.AccountProviders(ctx, codec.ToHex(pubKey))
	if err != nil {
		return TargetStatus{}, err
	}
	return TargetStatus{Exists: providers > 0}, nil
}

func (v *Validator) checkHomeAccount(ctx context.Context, account string, token *persist.TokenAsset) (TargetStatus, error) {
	if len(account) < 2 || len(account) > 64 || !accountIDPattern.MatchString(account) {
		return TargetStatus{}, persist.ErrInvalidAddress{Address: account, Side: persist.SideHome}
	}

	exists, err := v.home.AccountExists(ctx, persist.AccountID(account))
	if err != nil {
		return TargetStatus{}, err
	}

	status := TargetStatus{Exists: exists}
	if token != nil {
		registered, err := v.storageRegistered(ctx, token.ContractID, account)
		if err != nil {
			return TargetStatus{}, err
		}
		status.NeedsStorageDeposit = !registered
	}
	return status, nil
}

// storageRegistered reports whether the account already holds a storage registration on
// the token contract. A null balance view means it does not.
func (v *Validator) storageRegistered(ctx context.Context, contractID persist.ContractID, account string) (bool, error) {
	result, err := v.home.ViewFunction(ctx, contractID, "storage_balance_of", map[string]string{"account_id": account})
	if err != nil {
		return false, err
	}
	return len(result) > 0 && string(result) != "null", nil
}
