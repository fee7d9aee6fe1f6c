package persist

import (
	"context"
	"fmt"
	"time"
)

const (
	// DirectionHomeToAppchain represents a transfer initiated on the home ledger
	DirectionHomeToAppchain Direction = "home2appchain"
	// DirectionAppchainToHome represents a transfer initiated on an appchain
	DirectionAppchainToHome Direction = "appchain2home"
)

const (
	// TransferStatusPending is the initial status of every submitted transfer
	TransferStatusPending TransferStatus = "Pending"
	// TransferStatusSucceed is the terminal status of a transfer confirmed on the destination chain
	TransferStatusSucceed TransferStatus = "Succeed"
	// TransferStatusFailed is the terminal status of a transfer rejected on the destination chain
	TransferStatusFailed TransferStatus = "Failed"
)

// Direction identifies which chain a transfer was initiated on. The proof of completion
// for a transfer lives on the receiving chain, so the direction determines which chain
// the reconciliation poller asks.
type Direction string

// TransferStatus represents the lifecycle state of a bridge transfer
type TransferStatus string

// IsTerminal reports whether the status can no longer change
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusSucceed || s == TransferStatusFailed
}

// SendingSide returns the bridge side the transfer was initiated on
func (d Direction) SendingSide() BridgeSide {
	if d == DirectionAppchainToHome {
		return SideAppchain
	}
	return SideHome
}

// ReceivingSide returns the bridge side the transfer settles on
func (d Direction) ReceivingSide() BridgeSide {
	if d == DirectionAppchainToHome {
		return SideHome
	}
	return SideAppchain
}

// BridgeTransferRecord is the durable record of a submitted cross-chain transfer. The
// SequenceID is assigned by the source chain's bridging module and is unique within
// (AppchainID, Direction); the client never fabricates it.
type BridgeTransferRecord struct {
	AppchainID      AppchainID     `json:"appchain_id"`
	SequenceID      uint64         `json:"sequence_id"`
	Direction       Direction      `json:"direction"`
	FromAccount     string         `json:"from_account"`
	ToAccount       string         `json:"to_account"`
	Amount          string         `json:"amount"`
	TokenContractID ContractID     `json:"token_contract_id"`
	Status          TransferStatus `json:"status"`
	Message         string         `json:"message,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	Hash            string         `json:"hash"`
}

// Key returns the record's ledger key, unique within its appchain
func (r BridgeTransferRecord) Key() string {
	return fmt.Sprintf("%s:%d", r.Direction, r.SequenceID)
}

// TransferRepository represents a repository for interacting with persisted bridge
// transfer records. Implementations must survive process restarts: the ledger is the
// single source of truth for what is still in flight.
type TransferRepository interface {
	// Append adds a new record. Appending a record whose (appchain, direction, sequence)
	// already exists is a no-op, not an error.
	Append(context.Context, AppchainID, BridgeTransferRecord) error
	// Update replaces a record by its key. Status may only move forward; terminal
	// statuses are immutable.
	Update(context.Context, AppchainID, BridgeTransferRecord) error
	// List returns all records for an appchain without filtering or ordering.
	List(context.Context, AppchainID) ([]BridgeTransferRecord, error)
	// Clear deletes all records for an appchain. It is only ever invoked on explicit
	// user action.
	Clear(context.Context, AppchainID) error
}

// ErrInvalidAddress is returned when an address or account id is malformed for the chain
// it targets. It is always resolved before any network call.
type ErrInvalidAddress struct {
	Address string
	Side    BridgeSide
}

func (e ErrInvalidAddress) Error() string {
	return fmt.Sprintf("invalid address for %s side: %s", e.Side, e.Address)
}

// ErrTransferUnconfirmed is returned when a submission appeared to succeed but the
// expected confirming event could not be located in the transaction outcome.
type ErrTransferUnconfirmed struct {
	Hash      string
	EventKind string
}

func (e ErrTransferUnconfirmed) Error() string {
	return fmt.Sprintf("transfer unconfirmed: event %s not found in outcome of %s", e.EventKind, e.Hash)
}

// ErrTransferNotFound is returned when updating a record that was never appended
type ErrTransferNotFound struct {
	AppchainID AppchainID
	Key        string
}

func (e ErrTransferNotFound) Error() string {
	return fmt.Sprintf("transfer not found: %s/%s", e.AppchainID, e.Key)
}

// ErrInvalidStatusTransition is returned when an update would move a record's status
// backward or out of a terminal state
type ErrInvalidStatusTransition struct {
	Key  string
	From TransferStatus
	To   TransferStatus
}

func (e ErrInvalidStatusTransition) Error() string {
	return fmt.Sprintf("invalid status transition for %s: %s -> %s", e.Key, e.From, e.To)
}
