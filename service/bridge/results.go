package bridge

import (
	"encoding/json"
	"fmt"
)

const (
	// OutcomePending means the receiving chain has not processed the message yet
	OutcomePending MessageOutcomeKind = "pending"
	// OutcomeSucceed means the receiving chain processed the message successfully
	OutcomeSucceed MessageOutcomeKind = "succeed"
	// OutcomeFailed means the receiving chain rejected the message
	OutcomeFailed MessageOutcomeKind = "failed"
)

// MessageOutcomeKind classifies a cross-chain message processing result
type MessageOutcomeKind string

// MessageOutcome is the tagged result of asking a receiving chain about one pending
// message. The two chains report results in different shapes; the parsers below
// normalize both into this type.
type MessageOutcome struct {
	Kind    MessageOutcomeKind
	Message string
}

// ParseProcessingResult parses the home-ledger anchor contract's message-processing
// view result. The view returns a union: absent/null while unprocessed, {"Ok": ...} on
// success, {"Error": {"message": ...}} on failure. Any other shape is a parse error,
// never treated as success or failure.
func ParseProcessingResult(raw json.RawMessage) (MessageOutcome, error) {
	if isNull(raw) {
		return MessageOutcome{Kind: OutcomePending}, nil
	}

	var union struct {
		Ok    json.RawMessage `json:"Ok"`
		Error *struct {
			Message string `json:"message"`
		} `json:"Error"`
	}
	if err := json.Unmarshal(raw, &union); err != nil {
		return MessageOutcome{}, fmt.Errorf("unexpected processing result shape %q: %w", raw, err)
	}

	switch {
	case union.Error != nil:
		return MessageOutcome{Kind: OutcomeFailed, Message: union.Error.Message}, nil
	case union.Ok != nil:
		return MessageOutcome{Kind: OutcomeSucceed}, nil
	default:
		return MessageOutcome{}, fmt.Errorf("unexpected processing result shape %q: neither Ok nor Error", raw)
	}
}

// ParseNotificationResult parses an appchain's notification-history storage value for a
// sequence id. null means unprocessed, the JSON string "Success" means success, and any
// other non-null value is a failure whose rendering is the failure message.
func ParseNotificationResult(raw json.RawMessage) (MessageOutcome, error) {
	if isNull(raw) {
		return MessageOutcome{Kind: OutcomePending}, nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		// non-string failure payloads carry their raw JSON as the message
		return MessageOutcome{Kind: OutcomeFailed, Message: string(raw)}, nil
	}
	if value == "Success" {
		return MessageOutcome{Kind: OutcomeSucceed}, nil
	}
	return MessageOutcome{Kind: OutcomeFailed, Message: value}, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
