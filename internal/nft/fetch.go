package nft

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

const maxDocumentSize = 1 << 20

// Fetcher retrieves off-chain metadata documents
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches documents over HTTP, rate limited and with an LRU of
// recent documents. Cached entries are never revalidated.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache
}

// NewHTTPFetcher creates a fetcher allowing perSecond requests and caching
// up to cacheSize documents
func NewHTTPFetcher(client *http.Client, perSecond float64, cacheSize int) (*HTTPFetcher, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}
	return &HTTPFetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		cache:   cache,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if v, ok := f.cache.Get(url); ok {
		return v.([]byte), nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	f.cache.Add(url, body)
	return body, nil
}
