package appchain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// wsServer serves a JSON-RPC endpoint whose responses come from handler, keyed by method
func wsServer(t *testing.T, handler func(req rpcRequest) interface{}) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req rpcRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if err := conn.WriteJSON(map[string]interface{}{"id": req.ID, "result": handler(req)}); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(context.Background(), endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestAccountProviders(t *testing.T) {
	a := assert.New(t)
	c := wsServer(t, func(req rpcRequest) interface{} {
		require.Equal(t, "chain_getStorageEntry", req.Method)
		args := req.Params[2].([]interface{})
		if args[0] == "0xd435" {
			return map[string]interface{}{"nonce": 4, "providers": 1}
		}
		return nil
	})

	providers, err := c.AccountProviders(context.Background(), "0xd435")
	require.NoError(t, err)
	a.Equal(uint32(1), providers)

	providers, err = c.AccountProviders(context.Background(), "0xffff")
	require.NoError(t, err, "an unknown account is an answer, not an error")
	a.Zero(providers)
}

func TestNotificationHistory(t *testing.T) {
	a := assert.New(t)
	c := wsServer(t, func(req rpcRequest) interface{} {
		args := req.Params[2].([]interface{})
		if args[0].(float64) == 9 {
			return "Success"
		}
		return nil
	})

	result, err := c.NotificationHistory(context.Background(), 9)
	require.NoError(t, err)
	a.Equal(`"Success"`, string(result))

	result, err = c.NotificationHistory(context.Background(), 10)
	require.NoError(t, err)
	a.Equal("null", string(result))
}

func TestCall_AfterCloseFails(t *testing.T) {
	a := assert.New(t)
	c := wsServer(t, func(req rpcRequest) interface{} { return nil })

	require.NoError(t, c.Close())
	_, err := c.Call(context.Background(), "chain_getStorageEntry")
	a.ErrorIs(err, ErrClosed)
}

func TestCall_ContextCancellation(t *testing.T) {
	a := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// swallow requests and never answer
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	c, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Call(ctx, "chain_getStorageEntry", "System", "Account")
	a.ErrorIs(err, context.DeadlineExceeded)
}
