package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spanbridge/go-spanbridge/service/persist"
)

// ErrUserCancelled is returned when the user aborts the signing flow. It is not an
// error condition for the caller to surface; callers swallow it silently.
var ErrUserCancelled = errors.New("signing cancelled by user")

// ChainError represents a submission that reached the chain and was refused. The message
// is the chain-reported reason, surfaced verbatim to the user.
type ChainError struct {
	Message string
}

func (e ChainError) Error() string {
	return fmt.Sprintf("chain rejected submission: %s", e.Message)
}

// FunctionCall is a home-ledger contract call action
type FunctionCall struct {
	ContractID persist.ContractID `json:"contract_id"`
	Method     string             `json:"method"`
	Args       json.RawMessage    `json:"args"`
	// Deposit is the attached deposit in the chain's smallest unit; some token-contract
	// methods require a one-unit deposit as part of the storage-registration model.
	Deposit string `json:"deposit,omitempty"`
}

// Extrinsic is an appchain-side signed call action
type Extrinsic struct {
	Pallet string            `json:"pallet"`
	Call   string            `json:"call"`
	Args   []json.RawMessage `json:"args"`
}

// Action is the single on-chain action a signer is asked to sign and submit. Exactly one
// of the fields is set.
type Action struct {
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	Extrinsic    *Extrinsic    `json:"extrinsic,omitempty"`
}

// EventRecord is one event emitted by an accepted transaction, as reported by the chain
type EventRecord struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Outcome is the result of an accepted submission. Acceptance does not imply cross-chain
// settlement; it only means the source chain took the action.
type Outcome struct {
	Hash   string        `json:"hash"`
	Events []EventRecord `json:"events"`
}

// Signer is the capability supplied by the external wallet session. Implementations may
// suspend for user interaction; a user abort is reported as ErrUserCancelled and a
// chain-side refusal as ChainError.
type Signer interface {
	// AccountID returns the account the session signs for, in the sending chain's
	// native format.
	AccountID() string
	// SignAndSubmit signs the action and submits it to the sending chain, returning
	// once the chain accepts or rejects it.
	SignAndSubmit(ctx context.Context, action Action) (Outcome, error)
}
