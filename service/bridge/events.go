package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/spanbridge/go-spanbridge/service/wallet"
)

const (
	// EventKindLocked is emitted by an appchain when its native asset is locked for
	// bridging out. Data: [sender, receiver, amount, sequence].
	EventKindLocked = "Locked"
	// EventKindAssetBurned is emitted by an appchain when a class-identified asset is
	// burned for bridging out. Data: [assetId, sender, receiver, amount, sequence].
	EventKindAssetBurned = "AssetBurned"
	// EventKindWrappedTokenBurned is logged by the home anchor contract when the native
	// wrapped asset is burned for bridging back. Data: [sender, receiver, amount, sequence].
	EventKindWrappedTokenBurned = "WrappedTokenBurned"
	// EventKindTokenLocked is logged by the home anchor contract when a non-native
	// fungible is locked for bridging out. Data: [token, sender, receiver, amount, sequence].
	EventKindTokenLocked = "TokenLocked"
	// EventKindNftLocked is emitted when a collectible crosses the bridge in either
	// direction. Data: [classId, instanceId, sender, receiver, sequence].
	EventKindNftLocked = "NftLocked"
)

// ErrEventShape is returned when an event of the expected kind is present but its
// payload does not decode. A shape mismatch is a hard failure: guessing at positions in
// a generic array is exactly what this decoder layer exists to prevent.
type ErrEventShape struct {
	Kind   string
	Reason string
}

func (e ErrEventShape) Error() string {
	return fmt.Sprintf("malformed %s event payload: %s", e.Kind, e.Reason)
}

// eventPayloadLayout describes where a known event kind carries its fields inside the
// chain's positional event array.
type eventPayloadLayout struct {
	length        int
	sequenceIndex int
	amountIndex   int // -1 when the event carries no amount
}

var eventLayouts = map[string]eventPayloadLayout{
	EventKindLocked:             {length: 4, sequenceIndex: 3, amountIndex: 2},
	EventKindWrappedTokenBurned: {length: 4, sequenceIndex: 3, amountIndex: 2},
	EventKindAssetBurned:        {length: 5, sequenceIndex: 4, amountIndex: 3},
	EventKindTokenLocked:        {length: 5, sequenceIndex: 4, amountIndex: 3},
	EventKindNftLocked:          {length: 5, sequenceIndex: 4, amountIndex: -1},
}

// BridgingEvent is the decoded form of a bridging event, independent of which kind
// produced it
type BridgingEvent struct {
	Kind       string
	SequenceID uint64
	Amount     string
}

// DecodeBridgingEvent decodes the payload of a known bridging event kind, failing
// loudly on any shape mismatch.
func DecodeBridgingEvent(kind string, data json.RawMessage) (BridgingEvent, error) {
	layout, ok := eventLayouts[kind]
	if !ok {
		return BridgingEvent{}, ErrEventShape{Kind: kind, Reason: "unknown event kind"}
	}

	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return BridgingEvent{}, ErrEventShape{Kind: kind, Reason: fmt.Sprintf("payload is not an array: %s", err)}
	}
	if len(fields) != layout.length {
		return BridgingEvent{}, ErrEventShape{Kind: kind, Reason: fmt.Sprintf("expected %d fields, got %d", layout.length, len(fields))}
	}

	evt := BridgingEvent{Kind: kind}
	if err := json.Unmarshal(fields[layout.sequenceIndex], &evt.SequenceID); err != nil {
		return BridgingEvent{}, ErrEventShape{Kind: kind, Reason: fmt.Sprintf("sequence id: %s", err)}
	}
	if layout.amountIndex >= 0 {
		if err := json.Unmarshal(fields[layout.amountIndex], &evt.Amount); err != nil {
			return BridgingEvent{}, ErrEventShape{Kind: kind, Reason: fmt.Sprintf("amount: %s", err)}
		}
	}
	return evt, nil
}

// findBridgingEvent locates and decodes the first event of the expected kind in a
// transaction outcome.
func findBridgingEvent(outcome wallet.Outcome, kind string) (BridgingEvent, bool, error) {
	for _, record := range outcome.Events {
		if record.Kind != kind {
			continue
		}
		evt, err := DecodeBridgingEvent(kind, record.Data)
		if err != nil {
			return BridgingEvent{}, false, err
		}
		return evt, true, nil
	}
	return BridgingEvent{}, false, nil
}
