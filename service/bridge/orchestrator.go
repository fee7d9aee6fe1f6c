package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spanbridge/go-spanbridge/event"
	"github.com/spanbridge/go-spanbridge/service/codec"
	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/service/wallet"
)

var (
	// ErrAmbiguousAsset is returned when a submission names both or neither of a
	// fungible token and a collectible
	ErrAmbiguousAsset = errors.New("exactly one of token or collectible must be set")
	// ErrMissingAmount is returned when a fungible submission carries no positive amount
	ErrMissingAmount = errors.New("fungible transfers require a positive amount")
)

// SubmitParams describes one requested cross-chain transfer. Exactly one of Token and
// Collectible is set; Amount is ignored for collectibles, which always move exactly one
// instance.
type SubmitParams struct {
	Appchain      persist.AppchainDescriptor
	Direction     persist.Direction
	Token         *persist.TokenAsset
	Collectible   *persist.Collectible
	Amount        decimal.Decimal
	TargetAccount string
}

// Orchestrator builds and submits the single on-chain action that initiates a
// cross-chain transfer. It returns once the source chain accepts the action; it never
// waits for cross-chain settlement, which is the reconciliation poller's job.
type Orchestrator struct {
	repo   persist.TransferRepository
	events *event.Dispatcher
	signer wallet.Signer
}

// NewOrchestrator creates an orchestrator bound to one wallet session. A new session
// means a new orchestrator; there is no ambient session state.
func NewOrchestrator(repo persist.TransferRepository, events *event.Dispatcher, signer wallet.Signer) *Orchestrator {
	return &Orchestrator{repo: repo, events: events, signer: signer}
}

// Submit constructs the chain action for the transfer, has the signer submit it, and
// records the resulting pending transfer. The sequence id on the returned record comes
// from the chain's own bridging event, never from the client.
func (o *Orchestrator) Submit(ctx context.Context, params SubmitParams) (persist.BridgeTransferRecord, error) {
	action, expectedKind, receiver, amountInteger, err := o.buildAction(params)
	if err != nil {
		return persist.BridgeTransferRecord{}, err
	}

	outcome, err := o.signer.SignAndSubmit(ctx, action)
	if err != nil {
		// a user abort is not an error condition; it propagates untouched so callers
		// can suppress it without a toast
		return persist.BridgeTransferRecord{}, err
	}

	evt, found, err := findBridgingEvent(outcome, expectedKind)
	if err != nil {
		logger.For(ctx).WithField("hash", outcome.Hash).Errorf("confirming event did not decode: %s", err)
		return persist.BridgeTransferRecord{}, persist.ErrTransferUnconfirmed{Hash: outcome.Hash, EventKind: expectedKind}
	}
	if !found {
		return persist.BridgeTransferRecord{}, persist.ErrTransferUnconfirmed{Hash: outcome.Hash, EventKind: expectedKind}
	}

	record := persist.BridgeTransferRecord{
		AppchainID:      params.Appchain.ID,
		SequenceID:      evt.SequenceID,
		Direction:       params.Direction,
		FromAccount:     o.signer.AccountID(),
		ToAccount:       receiver,
		Amount:          amountInteger,
		TokenContractID: tokenContractID(params),
		Status:          persist.TransferStatusPending,
		Timestamp:       time.Now(),
		Hash:            outcome.Hash,
	}

	if err := o.repo.Append(ctx, params.Appchain.ID, record); err != nil {
		return persist.BridgeTransferRecord{}, fmt.Errorf("failed to record pending transfer: %w", err)
	}

	o.events.Dispatch(ctx, event.TransferEvent{AppchainID: params.Appchain.ID, Record: record})
	return record, nil
}

// buildAction chooses the action shape for the transfer's direction and asset kind and
// returns it together with the event kind that confirms it, the translated receiver,
// and the chain-integer amount.
func (o *Orchestrator) buildAction(params SubmitParams) (wallet.Action, string, string, string, error) {
	if (params.Token == nil) == (params.Collectible == nil) {
		return wallet.Action{}, "", "", "", ErrAmbiguousAsset
	}

	if params.Direction == persist.DirectionHomeToAppchain {
		return o.buildOutboundAction(params)
	}
	return o.buildInboundAction(params)
}

// buildOutboundAction covers home→appchain transfers: the receiver is an SS58 appchain
// address, re-encoded to hex for the contract call.
func (o *Orchestrator) buildOutboundAction(params SubmitParams) (wallet.Action, string, string, string, error) {
	pubKey, _, err := codec.DecodeSS58(params.TargetAccount)
	if err != nil {
		return wallet.Action{}, "", "", "", err
	}
	receiver := codec.ToHex(pubKey)

	if params.Collectible != nil {
		args, err := json.Marshal(map[string]interface{}{
			"class_id":    params.Collectible.ClassID,
			"instance_id": params.Collectible.InstanceID,
			"receiver_id": receiver,
		})
		if err != nil {
			return wallet.Action{}, "", "", "", err
		}
		action := wallet.Action{FunctionCall: &wallet.FunctionCall{
			ContractID: params.Appchain.AnchorContract,
			Method:     "lock_nft",
			Args:       args,
			Deposit:    "1",
		}}
		return action, EventKindNftLocked, receiver, "", nil
	}

	amount, err := o.chainAmount(params)
	if err != nil {
		return wallet.Action{}, "", "", "", err
	}

	if params.Token.IsNative() {
		args, err := json.Marshal(map[string]string{"receiver_id": receiver, "amount": amount})
		if err != nil {
			return wallet.Action{}, "", "", "", err
		}
		action := wallet.Action{FunctionCall: &wallet.FunctionCall{
			ContractID: params.Appchain.AnchorContract,
			Method:     "burn_wrapped_token",
			Args:       args,
		}}
		return action, EventKindWrappedTokenBurned, receiver, amount, nil
	}

	// non-native fungibles go through the token contract itself, carrying the bridge
	// instruction as the transfer message and the one-unit deposit the
	// storage-registration model requires
	msg, err := json.Marshal(map[string]interface{}{
		"BridgeToAppchain": map[string]string{
			"appchain_id": params.Appchain.ID.String(),
			"receiver_id": receiver,
		},
	})
	if err != nil {
		return wallet.Action{}, "", "", "", err
	}
	args, err := json.Marshal(map[string]string{
		"receiver_id": params.Appchain.AnchorContract.String(),
		"amount":      amount,
		"msg":         string(msg),
	})
	if err != nil {
		return wallet.Action{}, "", "", "", err
	}
	action := wallet.Action{FunctionCall: &wallet.FunctionCall{
		ContractID: params.Token.ContractID,
		Method:     "ft_transfer_call",
		Args:       args,
		Deposit:    "1",
	}}
	return action, EventKindTokenLocked, receiver, amount, nil
}

// buildInboundAction covers appchain→home transfers: the receiver is a home-ledger
// account id, re-encoded to hex for the extrinsic.
func (o *Orchestrator) buildInboundAction(params SubmitParams) (wallet.Action, string, string, string, error) {
	receiver := codec.AccountIDToHex(persist.AccountID(params.TargetAccount)).String()

	if params.Collectible != nil {
		action := wallet.Action{Extrinsic: &wallet.Extrinsic{
			Pallet: "Bridge",
			Call:   "lock_nft",
			Args:   rawArgs(params.Collectible.ClassID, params.Collectible.InstanceID, receiver),
		}}
		return action, EventKindNftLocked, receiver, "", nil
	}

	amount, err := o.chainAmount(params)
	if err != nil {
		return wallet.Action{}, "", "", "", err
	}

	if params.Token.IsNative() {
		action := wallet.Action{Extrinsic: &wallet.Extrinsic{
			Pallet: "Bridge",
			Call:   "lock",
			Args:   rawArgs(receiver, amount),
		}}
		return action, EventKindLocked, receiver, amount, nil
	}

	action := wallet.Action{Extrinsic: &wallet.Extrinsic{
		Pallet: "Bridge",
		Call:   "burn_asset",
		Args:   rawArgs(*params.Token.AssetID, receiver, amount),
	}}
	return action, EventKindAssetBurned, receiver, amount, nil
}

// chainAmount converts the human-readable amount into the sending chain's precision
func (o *Orchestrator) chainAmount(params SubmitParams) (string, error) {
	if !params.Amount.IsPositive() {
		return "", ErrMissingAmount
	}
	return codec.ToChainInteger(params.Amount, params.Token.DecimalsOn(params.Direction.SendingSide()))
}

func tokenContractID(params SubmitParams) persist.ContractID {
	if params.Token == nil {
		return ""
	}
	return params.Token.ContractID
}

func rawArgs(args ...interface{}) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		encoded, _ := json.Marshal(arg)
		out = append(out, encoded)
	}
	return out
}
