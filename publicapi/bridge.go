package publicapi

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spanbridge/go-spanbridge/event"
	"github.com/spanbridge/go-spanbridge/service/bridge"
	"github.com/spanbridge/go-spanbridge/service/catalog"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/service/preflight"
)

// TransferSubmitter signs and submits a prepared transfer. In a running deployment this is
// a bridge.Orchestrator bound to the active wallet session.
type TransferSubmitter interface {
	Submit(ctx context.Context, params bridge.SubmitParams) (persist.BridgeTransferRecord, error)
}

// ErrTargetNotFound is returned when a transfer target passed preflight parsing but does
// not exist on the receiving chain
type ErrTargetNotFound struct {
	Account string
	Side    persist.BridgeSide
}

func (e ErrTargetNotFound) Error() string {
	return fmt.Sprintf("target account does not exist on %s side: %s", e.Side, e.Account)
}

// ErrUnknownToken is returned when a token contract is not in the appchain's catalog
type ErrUnknownToken struct {
	AppchainID persist.AppchainID
	ContractID persist.ContractID
}

func (e ErrUnknownToken) Error() string {
	return fmt.Sprintf("token %s is not bridgeable on appchain %s", e.ContractID, e.AppchainID)
}

type BridgeAPI struct {
	repo      persist.TransferRepository
	assets    catalog.Catalog
	checker   *preflight.Validator
	submitter TransferSubmitter
	validator *validator.Validate
	events    *event.Dispatcher
}

type SubmitTransferInput struct {
	AppchainID            string  `json:"appchain_id" validate:"required"`
	Direction             string  `json:"direction" validate:"required,oneof=home2appchain appchain2home"`
	TokenContractID       string  `json:"token_contract_id"`
	CollectibleClassID    *uint32 `json:"collectible_class_id"`
	CollectibleInstanceID *uint64 `json:"collectible_instance_id"`
	Amount                string  `json:"amount"`
	TargetAccount         string  `json:"target_account" validate:"required"`
}

type ValidateTargetInput struct {
	AppchainID      string `json:"appchain_id" validate:"required"`
	Direction       string `json:"direction" validate:"required,oneof=home2appchain appchain2home"`
	TokenContractID string `json:"token_contract_id"`
	TargetAccount   string `json:"target_account" validate:"required"`
}

type MaxTransferableInput struct {
	AppchainID      string `json:"appchain_id" validate:"required"`
	Direction       string `json:"direction" validate:"required,oneof=home2appchain appchain2home"`
	TokenContractID string `json:"token_contract_id" validate:"required"`
	Balance         string `json:"balance" validate:"required"`
}

// SubmitTransfer resolves, validates, and submits a transfer. The target account is
// checked against the receiving chain before anything is handed to the wallet: a target
// that fails to parse or does not exist never reaches the submitter.
func (api *BridgeAPI) SubmitTransfer(ctx context.Context, input SubmitTransferInput) (persist.BridgeTransferRecord, error) {
	if err := api.validator.Struct(input); err != nil {
		return persist.BridgeTransferRecord{}, err
	}

	descriptor, err := api.assets.Appchain(ctx, persist.AppchainID(input.AppchainID))
	if err != nil {
		return persist.BridgeTransferRecord{}, err
	}

	direction := persist.Direction(input.Direction)

	var token *persist.TokenAsset
	if input.TokenContractID != "" {
		token, err = api.resolveToken(ctx, descriptor, persist.ContractID(input.TokenContractID))
		if err != nil {
			return persist.BridgeTransferRecord{}, err
		}
	}

	var collectible *persist.Collectible
	if input.CollectibleClassID != nil && input.CollectibleInstanceID != nil {
		collectible = &persist.Collectible{
			ClassID:    persist.CollectibleClassID(*input.CollectibleClassID),
			InstanceID: *input.CollectibleInstanceID,
		}
	}

	status, err := api.checker.CheckTargetAccount(ctx, direction.ReceivingSide(), input.TargetAccount, token)
	if err != nil {
		return persist.BridgeTransferRecord{}, err
	}
	if !status.Exists {
		return persist.BridgeTransferRecord{}, ErrTargetNotFound{Account: input.TargetAccount, Side: direction.ReceivingSide()}
	}

	var amount decimal.Decimal
	if input.Amount != "" {
		amount, err = decimal.NewFromString(input.Amount)
		if err != nil {
			return persist.BridgeTransferRecord{}, err
		}
	}

	return api.submitter.Submit(ctx, bridge.SubmitParams{
		Appchain:      descriptor,
		Direction:     direction,
		Token:         token,
		Collectible:   collectible,
		Amount:        amount,
		TargetAccount: input.TargetAccount,
	})
}

// GetTransfers returns the recorded transfers of an appchain, most recent first
func (api *BridgeAPI) GetTransfers(ctx context.Context, appchainID persist.AppchainID) ([]persist.BridgeTransferRecord, error) {
	records, err := api.repo.List(ctx, appchainID)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// ClearTransfers drops every recorded transfer of an appchain. Records of other appchains
// are untouched.
func (api *BridgeAPI) ClearTransfers(ctx context.Context, appchainID persist.AppchainID) error {
	return api.repo.Clear(ctx, appchainID)
}

// ValidateTarget checks a candidate target account against the receiving chain. Callers
// driving this from keystroke input are expected to debounce on their side.
func (api *BridgeAPI) ValidateTarget(ctx context.Context, input ValidateTargetInput) (preflight.TargetStatus, error) {
	if err := api.validator.Struct(input); err != nil {
		return preflight.TargetStatus{}, err
	}

	descriptor, err := api.assets.Appchain(ctx, persist.AppchainID(input.AppchainID))
	if err != nil {
		return preflight.TargetStatus{}, err
	}

	var token *persist.TokenAsset
	if input.TokenContractID != "" {
		token, err = api.resolveToken(ctx, descriptor, persist.ContractID(input.TokenContractID))
		if err != nil {
			return preflight.TargetStatus{}, err
		}
	}

	direction := persist.Direction(input.Direction)
	return api.checker.CheckTargetAccount(ctx, direction.ReceivingSide(), input.TargetAccount, token)
}

// MaxTransferable computes the largest amount of a token that can leave the sending chain
// given the sender's balance
func (api *BridgeAPI) MaxTransferable(ctx context.Context, input MaxTransferableInput) (decimal.Decimal, error) {
	if err := api.validator.Struct(input); err != nil {
		return decimal.Zero, err
	}

	descriptor, err := api.assets.Appchain(ctx, persist.AppchainID(input.AppchainID))
	if err != nil {
		return decimal.Zero, err
	}

	token, err := api.resolveToken(ctx, descriptor, persist.ContractID(input.TokenContractID))
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := decimal.NewFromString(input.Balance)
	if err != nil {
		return decimal.Zero, err
	}

	return api.checker.MaxTransferable(balance, *token, persist.Direction(input.Direction)), nil
}

// ListTokens returns the bridgeable fungible tokens of an appchain
func (api *BridgeAPI) ListTokens(ctx context.Context, appchainID persist.AppchainID) ([]persist.TokenAsset, error) {
	return api.assets.ListTokens(ctx, appchainID)
}

func (api *BridgeAPI) resolveToken(ctx context.Context, descriptor persist.AppchainDescriptor, contractID persist.ContractID) (*persist.TokenAsset, error) {
	if descriptor.NativeToken.ContractID == contractID {
		token := descriptor.NativeToken
		return &token, nil
	}

	tokens, err := api.assets.ListTokens(ctx, descriptor.ID)
	if err != nil {
		return nil, err
	}
	for _, token := range tokens {
		if token.ContractID == contractID {
			token := token
			return &token, nil
		}
	}
	return nil, ErrUnknownToken{AppchainID: descriptor.ID, ContractID: contractID}
}
