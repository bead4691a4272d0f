package catalog

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoCachedClient wraps a Client with a bounded in-memory LRU cache over
// GetModInfo, the call a single run (correlation pass, update check, catalog
// browse) tends to repeat for the same mod across several operations. Every
// other Client method passes straight through uncached, since they either
// mutate state (Endorse, Track) or are already called at most once per run.
type MemoCachedClient struct {
	Client
	cache *lru.Cache[string, ModInfo]
}

// NewMemoCachedClient wraps client with an LRU cache holding up to size
// ModInfo entries. A non-positive size is treated as 1, so the most recently
// fetched ModInfo is still cached.
func NewMemoCachedClient(client Client, size int) *MemoCachedClient {
	if size <= 0 {
		size = 1
	}
	c, _ := lru.New[string, ModInfo](size)
	return &MemoCachedClient{Client: client, cache: c}
}

func modInfoKey(domain string, modID int64) string {
	return fmt.Sprintf("%s:%d", domain, modID)
}

func (m *MemoCachedClient) GetModInfo(ctx context.Context, domain string, modID int64) (ModInfo, error) {
	key := modInfoKey(domain, modID)
	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}
	info, err := m.Client.GetModInfo(ctx, domain, modID)
	if err != nil {
		return ModInfo{}, err
	}
	m.cache.Add(key, info)
	return info, nil
}

// Invalidate drops any cached ModInfo for domain/modID, for callers that
// just learned the catalog's copy changed (e.g. after an update check).
func (m *MemoCachedClient) Invalidate(domain string, modID int64) {
	m.cache.Remove(modInfoKey(domain, modID))
}
