// Package catalog holds the client's view of the sellable products and
// keeps it fresh against a server catalog that other sessions mutate
// out-of-band.
package catalog

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/shefospecial/victoriasystem/internal/domain"
)

// ProductFetcher is the slice of the API client the cache needs.
type ProductFetcher interface {
	FetchProducts(ctx context.Context, perPage int) ([]domain.Product, int, error)
}

// Cache is the in-memory product list. Lookups run against whatever
// snapshot is current; Load swaps snapshots atomically and never
// mutates a slice it has already handed out.
type Cache struct {
	fetcher  ProductFetcher
	pageSize int

	mu       sync.RWMutex
	products []domain.Product
}

func NewCache(fetcher ProductFetcher, pageSize int) *Cache {
	if pageSize < 1 {
		pageSize = 1000
	}
	return &Cache{fetcher: fetcher, pageSize: pageSize}
}

// Load fetches the complete product collection. If the first page's
// reported total exceeds what came back, a follow-up unpaginated fetch
// is issued; its contents replace the cache only when it succeeds with
// a non-empty set. Any failure leaves the previous contents intact.
func (c *Cache) Load(ctx context.Context) error {
	products, total, err := c.fetcher.FetchProducts(ctx, c.pageSize)
	if err != nil {
		return err
	}
	c.swap(products)

	if total > len(products) {
		log.Printf("[catalog] pagination detected: total=%d retrieved=%d, fetching full set", total, len(products))
		full, _, err := c.fetcher.FetchProducts(ctx, 0)
		if err != nil {
			log.Printf("[catalog] full fetch failed, keeping %d products: %v", len(products), err)
			return nil
		}
		if len(full) > 0 {
			c.swap(full)
		}
	}

	return nil
}

func (c *Cache) swap(products []domain.Product) {
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
}

// Products returns the current snapshot. Callers must not mutate it.
func (c *Cache) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// FindBySubstring matches the query case-insensitively against product
// names and barcodes. The result is recomputed per call; there is no
// persisted index.
func (c *Cache) FindBySubstring(query string) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	snapshot := c.Products()
	var matches []domain.Product
	for _, p := range snapshot {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			(p.Barcode != "" && strings.Contains(strings.ToLower(p.Barcode), query)) {
			matches = append(matches, p)
		}
	}
	return matches
}

// FindByExactCode matches the barcode field only, case-insensitively.
// It reports a match only when exactly one product carries the code, so
// auto-select never fires on an ambiguous barcode.
func (c *Cache) FindByExactCode(code string) (domain.Product, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return domain.Product{}, false
	}

	var match domain.Product
	found := 0
	for _, p := range c.Products() {
		if p.Barcode != "" && strings.ToLower(p.Barcode) == code {
			match = p
			found++
		}
	}
	if found != 1 {
		return domain.Product{}, false
	}
	return match, true
}
