package home

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcServer(t *testing.T, handler func(req rpcRequest) (interface{}, *rpcError)) (*Client, *int32) {
	t.Helper()
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handler(req)
		if rpcErr != nil {
			json.NewEncoder(w).Encode(map[string]interface{}{"id": req.ID, "error": rpcErr})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client()), &hits
}

func TestViewFunction(t *testing.T) {
	a := assert.New(t)
	c, _ := rpcServer(t, func(req rpcRequest) (interface{}, *rpcError) {
		params, _ := json.Marshal(req.Params)
		var q queryParams
		require.NoError(t, json.Unmarshal(params, &q))
		require.Equal(t, "call_function", q.RequestType)
		require.Equal(t, "anchor.testnet", q.AccountID)
		require.Equal(t, "get_message_processing_result", q.MethodName)

		args, err := base64.StdEncoding.DecodeString(q.ArgsBase64)
		require.NoError(t, err)
		require.JSONEq(t, `{"nonce":7}`, string(args))

		return callFunctionResult{Result: []byte(`{"Ok":{"nonce":7}}`)}, nil
	})

	result, err := c.ViewFunction(context.Background(), "anchor.testnet", "get_message_processing_result", map[string]uint64{"nonce": 7})
	require.NoError(t, err)
	a.JSONEq(`{"Ok":{"nonce":7}}`, string(result))
}

func TestAccountExists(t *testing.T) {
	a := assert.New(t)
	c, _ := rpcServer(t, func(req rpcRequest) (interface{}, *rpcError) {
		params, _ := json.Marshal(req.Params)
		var q queryParams
		require.NoError(t, json.Unmarshal(params, &q))
		if q.AccountID == "bob.testnet" {
			return map[string]string{"amount": "10"}, nil
		}
		return nil, &rpcError{Code: -32000, Message: "account nobody.testnet does not exist while viewing"}
	})

	exists, err := c.AccountExists(context.Background(), "bob.testnet")
	require.NoError(t, err)
	a.True(exists)

	exists, err = c.AccountExists(context.Background(), "nobody.testnet")
	require.NoError(t, err, "a missing account is an answer, not an error")
	a.False(exists)
}

func TestCall_ChainErrorIsNotRetried(t *testing.T) {
	a := assert.New(t)
	c, hits := rpcServer(t, func(req rpcRequest) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -32602, Message: "invalid params"}
	})

	_, err := c.ViewFunction(context.Background(), "anchor.testnet", "whatever", map[string]string{})
	a.Error(err)
	a.Equal(int32(1), atomic.LoadInt32(hits))
}

func TestCall_TransportFailureIsRetried(t *testing.T) {
	a := assert.New(t)
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"upstream down"}`))
			return
		}
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": req.ID, "result": callFunctionResult{Result: []byte(`null`)}})
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.Client())

	result, err := c.ViewFunction(context.Background(), "anchor.testnet", "whatever", map[string]string{})
	require.NoError(t, err)
	a.Equal("null", string(result))
	a.Equal(int32(3), atomic.LoadInt32(&hits))
}
