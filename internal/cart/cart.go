// Package cart owns the in-progress sale. The cart is client-owned and
// ephemeral, but every mutation is persisted synchronously to the
// terminal's key-value store so a crash or restart mid-sale does not
// lose the operator's work.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shefospecial/victoriasystem/internal/domain"
	"github.com/shefospecial/victoriasystem/internal/kv"
)

const linesKey = "cart:lines"

type Cart struct {
	store kv.Store

	mu    sync.Mutex
	lines []domain.CartLine
}

// Restore builds a cart rehydrated from the store. A missing entry
// starts an empty cart; an unreadable one is logged and dropped.
func Restore(ctx context.Context, store kv.Store) *Cart {
	c := &Cart{store: store}

	raw, err := store.Get(ctx, linesKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("[cart] restore failed, starting empty: %v", err)
		}
		return c
	}
	if err := json.Unmarshal(raw, &c.lines); err != nil {
		log.Printf("[cart] stored cart unreadable, starting empty: %v", err)
		c.lines = nil
	}
	return c
}

// AddOrIncrement adds the product to the sale. An existing line for the
// same product gains quantity instead of duplicating; a new line
// snapshots the product's current selling price.
func (c *Cart) AddOrIncrement(ctx context.Context, product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == product.ID {
			c.lines[i].Quantity++
			c.persist(ctx)
			return
		}
	}

	c.lines = append(c.lines, domain.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  1,
		UnitPrice: product.SellingPrice,
	})
	c.persist(ctx)
}

// SetQuantity sets the line's quantity exactly; qty <= 0 removes the
// line. Stock sufficiency is a server-side concern at checkout, so no
// clamping happens here.
func (c *Cart) SetQuantity(ctx context.Context, productID int64, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		c.removeLocked(ctx, productID)
		return
	}

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = qty
			c.persist(ctx)
			return
		}
	}
}

// SetPrice overwrites the line's effective price: the manual-override
// path for discounts, independent of the catalog. Non-positive prices
// are rejected as a no-op.
func (c *Cart) SetPrice(ctx context.Context, productID int64, price decimal.Decimal) {
	if !price.IsPositive() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].UnitPrice = price
			c.persist(ctx)
			return
		}
	}
}

func (c *Cart) Remove(ctx context.Context, productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(ctx, productID)
}

func (c *Cart) removeLocked(ctx context.Context, productID int64) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			c.persist(ctx)
			return
		}
	}
}

// Clear empties the cart and erases its durable backing entry.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	if err := c.store.Delete(ctx, linesKey); err != nil {
		log.Printf("[cart] WARN: failed to erase stored cart: %v", err)
	}
}

// Lines returns a copy of the ordered line sequence.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

// ItemCount is the summed quantity across lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Total is recomputed from the lines on every call; it is never stored
// where it could drift from the line data.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// persist writes the full line sequence. Called with the lock held.
// Persistence failure is logged, not fatal: the in-memory cart remains
// the working copy for this session.
func (c *Cart) persist(ctx context.Context) {
	payload, err := json.Marshal(c.lines)
	if err != nil {
		log.Printf("[cart] WARN: failed to encode cart: %v", err)
		return
	}
	if err := c.store.Set(ctx, linesKey, payload); err != nil {
		log.Printf("[cart] WARN: failed to persist cart: %v", err)
	}
}
