package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spanbridge/go-spanbridge/util"
)

// RemoteSigner is a Signer backed by a wallet sidecar service. The sidecar holds the keys
// and drives any user interaction; this process only forwards the prepared action and
// waits for the outcome.
type RemoteSigner struct {
	endpoint   string
	accountID  string
	httpClient *http.Client
}

// NewRemoteSigner creates a signer that forwards actions to the wallet service at endpoint
func NewRemoteSigner(endpoint, accountID string, httpClient *http.Client) *RemoteSigner {
	if httpClient == nil {
		// signing can block on user interaction, so the timeout is generous
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &RemoteSigner{endpoint: endpoint, accountID: accountID, httpClient: httpClient}
}

func (s *RemoteSigner) AccountID() string {
	return s.accountID
}

type signRequest struct {
	AccountID string `json:"account_id"`
	Action    Action `json:"action"`
}

type signResponse struct {
	Outcome   *Outcome `json:"outcome,omitempty"`
	Cancelled bool     `json:"cancelled,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// SignAndSubmit forwards the action to the wallet service. A user abort surfaces as
// ErrUserCancelled, a chain-side refusal as ChainError.
func (s *RemoteSigner) SignAndSubmit(ctx context.Context, action Action) (Outcome, error) {
	body, err := json.Marshal(signRequest{AccountID: s.accountID, Action: action})
	if err != nil {
		return Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/sign", bytes.NewReader(body))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Outcome{}, util.GetErrFromResp(res)
	}

	var parsed signResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Outcome{}, err
	}

	switch {
	case parsed.Cancelled:
		return Outcome{}, ErrUserCancelled
	case parsed.Error != "":
		return Outcome{}, ChainError{Message: parsed.Error}
	case parsed.Outcome == nil:
		return Outcome{}, ChainError{Message: "wallet returned no outcome"}
	}
	return *parsed.Outcome, nil
}
