package appchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/spanbridge/go-spanbridge/service/logger"
)

// ErrClosed is returned for calls issued after the connection has been torn down
var ErrClosed = errors.New("appchain connection closed")

// Client is a JSON-RPC client for an appchain over a persistent websocket connection.
// One client is established per active appchain selection and torn down when the user
// switches appchains.
type Client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan rpcResponse
	closed  bool
	done    chan struct{}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Dial connects to an appchain RPC endpoint and starts the read loop
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial appchain rpc at %s: %w", endpoint, err)
	}

	c := &Client{
		conn:    conn,
		pending: map[uint64]chan rpcResponse{},
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. In-flight calls fail with ErrClosed; responses that
// arrive after teardown are discarded.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	return c.conn.Close()
}

// Call issues a JSON-RPC request and waits for its correlated response
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan rpcResponse, 1)
	c.pending[id] = ch

	err := c.conn.WriteJSON(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	select {
	case res, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if res.Error != nil {
			return nil, *res.Error
		}
		return res.Result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// GetStorage reads a storage map entry keyed by pallet, item, and arguments. A null
// result means the entry does not exist, which callers treat as a domain answer rather
// than an error.
func (c *Client) GetStorage(ctx context.Context, pallet, item string, args ...interface{}) (json.RawMessage, error) {
	return c.Call(ctx, "chain_getStorageEntry", pallet, item, args)
}

// AccountProviders returns the provider reference count the appchain's system module
// holds for an account. A positive count means the account exists on-chain.
func (c *Client) AccountProviders(ctx context.Context, pubKeyHex string) (uint32, error) {
	result, err := c.GetStorage(ctx, "System", "Account", pubKeyHex)
	if err != nil {
		return 0, err
	}
	if isNull(result) {
		return 0, nil
	}

	var account struct {
		Providers uint32 `json:"providers"`
	}
	if err := json.Unmarshal(result, &account); err != nil {
		return 0, fmt.Errorf("unexpected system account shape: %w", err)
	}
	return account.Providers, nil
}

// NotificationHistory reads the bridging module's processing result for a sequence id.
// null means the message has not been processed yet.
func (c *Client) NotificationHistory(ctx context.Context, sequenceID uint64) (json.RawMessage, error) {
	return c.GetStorage(ctx, "Bridge", "NotificationHistory", sequenceID)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var res rpcResponse
		if err := c.conn.ReadJSON(&res); err != nil {
			c.mu.Lock()
			alreadyClosed := c.closed
			c.closed = true
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			if !alreadyClosed {
				logger.For(nil).Errorf("appchain rpc connection lost: %s", err)
			}
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[res.ID]
		if ok {
			delete(c.pending, res.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- res
		}
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
