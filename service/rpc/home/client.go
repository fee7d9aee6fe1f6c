package home

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/util"
)

const (
	maxAttempts   = 3
	retryBaseWait = 250 * time.Millisecond
)

// Client is a read-only JSON-RPC client for the home ledger. It only issues view calls
// and account-state queries; submissions go through the wallet signer.
type Client struct {
	endpoint   string
	httpClient *http.Client
	requestID  uint64
}

// NewClient creates a home-ledger client for the given RPC endpoint
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s %s", e.Code, e.Message, e.Data)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type queryParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name,omitempty"`
	ArgsBase64  string `json:"args_base64,omitempty"`
}

type callFunctionResult struct {
	Result []byte   `json:"result"`
	Logs   []string `json:"logs"`
}

// ViewFunction executes a read-only contract view call and returns the raw JSON value
// the contract produced.
func (c *Client) ViewFunction(ctx context.Context, contractID persist.ContractID, method string, args interface{}) (json.RawMessage, error) {
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	result, err := c.call(ctx, "query", queryParams{
		RequestType: "call_function",
		Finality:    "final",
		AccountID:   contractID.String(),
		MethodName:  method,
		ArgsBase64:  base64.StdEncoding.EncodeToString(encodedArgs),
	})
	if err != nil {
		return nil, err
	}

	var view callFunctionResult
	if err := json.Unmarshal(result, &view); err != nil {
		return nil, fmt.Errorf("unexpected view result for %s.%s: %w", contractID, method, err)
	}
	return json.RawMessage(view.Result), nil
}

// AccountExists reports whether the account exists on the home ledger. A chain answer of
// "does not exist" is a negative result, not an error.
func (c *Client) AccountExists(ctx context.Context, accountID persist.AccountID) (bool, error) {
	_, err := c.call(ctx, "query", queryParams{
		RequestType: "view_account",
		Finality:    "final",
		AccountID:   accountID.String(),
	})
	if err != nil {
		var rpcErr rpcError
		if ok := asRPCError(err, &rpcErr); ok && strings.Contains(strings.ToLower(rpcErr.Message+string(rpcErr.Data)), "does not exist") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func asRPCError(err error, target *rpcError) bool {
	if rpcErr, ok := err.(rpcError); ok {
		*target = rpcErr
		return true
	}
	return false
}

// call issues a single JSON-RPC request, retrying transport failures with a short
// backoff. Chain-reported errors are returned as-is and never retried.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&c.requestID, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryBaseWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.post(ctx, body)
		if err == nil {
			return result, nil
		}
		if _, isChainErr := err.(rpcError); isChainErr {
			return nil, err
		}
		lastErr = err
		logger.For(ctx).WithField("attempt", attempt+1).Debugf("home rpc transport failure: %s", err)
	}
	return nil, fmt.Errorf("home rpc failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, util.GetErrFromResp(res)
	}

	var rpcRes rpcResponse
	if err := json.NewDecoder(res.Body).Decode(&rpcRes); err != nil {
		return nil, err
	}
	if rpcRes.Error != nil {
		return nil, *rpcRes.Error
	}
	return rpcRes.Result, nil
}
