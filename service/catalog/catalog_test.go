package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T, ttl time.Duration) (*assert.Assertions, *HTTPCatalog, *int32) {
	t.Helper()
	var hits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/appchains/barnacle", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"appchain_id":"barnacle","anchor_contract":"barnacle.registry.testnet","rpc_endpoint":"wss://rpc.barnacle.example","ss58_prefix":42,"native_token":{"contract_id":"barnacle-token.testnet","decimals":{"home":18,"appchain":18},"symbol":"BAR"}}`))
	})
	mux.HandleFunc("/appchains/barnacle/tokens", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[{"contract_id":"usdc.testnet","asset_id":7,"decimals":{"home":6,"appchain":12},"symbol":"USDC"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewHTTPCatalog(srv.URL, srv.Client(), ttl)
	require.NoError(t, err)
	return assert.New(t), c, &hits
}

func TestAppchain(t *testing.T) {
	a, c, _ := setupTest(t, time.Minute)

	descriptor, err := c.Appchain(context.Background(), "barnacle")
	require.NoError(t, err)
	a.Equal(persist.ContractID("barnacle.registry.testnet"), descriptor.AnchorContract)
	a.Equal(uint16(42), descriptor.SS58Prefix)
	a.True(descriptor.NativeToken.IsNative())
}

func TestListTokens_ServedFromCacheWithinTTL(t *testing.T) {
	a, c, hits := setupTest(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tokens, err := c.ListTokens(ctx, "barnacle")
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		a.Equal("USDC", tokens[0].Symbol)
		a.Equal(int32(12), tokens[0].DecimalsOn(persist.SideAppchain))
	}
	a.Equal(int32(1), atomic.LoadInt32(hits))
}

func TestListTokens_RefetchesAfterTTL(t *testing.T) {
	a, c, hits := setupTest(t, time.Nanosecond)
	ctx := context.Background()

	_, err := c.ListTokens(ctx, "barnacle")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.ListTokens(ctx, "barnacle")
	require.NoError(t, err)

	a.Equal(int32(2), atomic.LoadInt32(hits))
}

func TestAppchain_NotFound(t *testing.T) {
	a, c, _ := setupTest(t, time.Minute)

	_, err := c.Appchain(context.Background(), "no-such-appchain")
	a.ErrorAs(err, &ErrAppchainNotFound{})
}
