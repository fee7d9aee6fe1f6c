package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/util"
)

// Catalog supplies the bridgeable assets of an appchain and their metadata. The engine
// only ever reads from it.
type Catalog interface {
	Appchain(ctx context.Context, appchainID persist.AppchainID) (persist.AppchainDescriptor, error)
	ListTokens(ctx context.Context, appchainID persist.AppchainID) ([]persist.TokenAsset, error)
	ListCollectibleClasses(ctx context.Context, appchainID persist.AppchainID) ([]persist.CollectibleClassID, error)
}

// ErrAppchainNotFound is returned when the metadata feed does not know an appchain
type ErrAppchainNotFound struct {
	AppchainID persist.AppchainID
}

func (e ErrAppchainNotFound) Error() string {
	return fmt.Sprintf("appchain not found in catalog: %s", e.AppchainID)
}

// HTTPCatalog is a Catalog over the remote metadata feed with a small in-process cache.
// Entries are cached for a TTL and refetched lazily; descriptors are immutable between
// refreshes.
type HTTPCatalog struct {
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache
	ttl        time.Duration
}

type cacheEntry struct {
	value     interface{}
	fetchedAt time.Time
}

// NewHTTPCatalog creates a catalog client for the given metadata feed
func NewHTTPCatalog(baseURL string, httpClient *http.Client, ttl time.Duration) (*HTTPCatalog, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	cache, err := lru.New(128)
	if err != nil {
		return nil, err
	}
	return &HTTPCatalog{baseURL: baseURL, httpClient: httpClient, cache: cache, ttl: ttl}, nil
}

// Appchain returns the descriptor for an appchain
func (c *HTTPCatalog) Appchain(ctx context.Context, appchainID persist.AppchainID) (persist.AppchainDescriptor, error) {
	var descriptor persist.AppchainDescriptor
	err := c.fetch(ctx, appchainID, fmt.Sprintf("appchain/%s", appchainID), fmt.Sprintf("/appchains/%s", appchainID), &descriptor)
	if err != nil {
		return persist.AppchainDescriptor{}, err
	}
	return descriptor, nil
}

// ListTokens returns the bridgeable fungible tokens of an appchain
func (c *HTTPCatalog) ListTokens(ctx context.Context, appchainID persist.AppchainID) ([]persist.TokenAsset, error) {
	var tokens []persist.TokenAsset
	err := c.fetch(ctx, appchainID, fmt.Sprintf("tokens/%s", appchainID), fmt.Sprintf("/appchains/%s/tokens", appchainID), &tokens)
	return tokens, err
}

// ListCollectibleClasses returns the collectible asset classes of an appchain
func (c *HTTPCatalog) ListCollectibleClasses(ctx context.Context, appchainID persist.AppchainID) ([]persist.CollectibleClassID, error) {
	var classes []persist.CollectibleClassID
	err := c.fetch(ctx, appchainID, fmt.Sprintf("classes/%s", appchainID), fmt.Sprintf("/appchains/%s/nft-classes", appchainID), &classes)
	return classes, err
}

func (c *HTTPCatalog) fetch(ctx context.Context, appchainID persist.AppchainID, cacheKey, path string, out interface{}) error {
	if entry, ok := c.cache.Get(cacheKey); ok {
		cached := entry.(cacheEntry)
		if time.Since(cached.fetchedAt) < c.ttl {
			return remarshal(cached.value, out)
		}
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrAppchainNotFound{AppchainID: appchainID}
	}
	if res.StatusCode != http.StatusOK {
		return util.GetErrFromResp(res)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return err
	}

	c.cache.Add(cacheKey, cacheEntry{value: raw, fetchedAt: time.Now()})
	logger.For(ctx).WithField("path", path).Debug("catalog entry refreshed")
	return nil
}

func remarshal(cached interface{}, out interface{}) error {
	raw, ok := cached.(json.RawMessage)
	if !ok {
		encoded, err := json.Marshal(cached)
		if err != nil {
			return err
		}
		raw = encoded
	}
	return json.Unmarshal(raw, out)
}
