// Package pos drives the point-of-sale flow: search and selection into
// the cart, the optional customer attachment, and checkout against the
// invoice endpoint.
package pos

import (
	"context"
	"strings"
	"sync"

	"github.com/shefospecial/victoriasystem/internal/cart"
	"github.com/shefospecial/victoriasystem/internal/catalog"
	"github.com/shefospecial/victoriasystem/internal/domain"
)

// Search is the selection engine behind the single always-focused input
// field. Barcode scanners are keystroke-emulating devices, so the same
// field serves scans and manual name search; a sufficiently long input
// that exactly matches one barcode is selected immediately, which is
// what makes scanning feel instantaneous.
type Search struct {
	cache       *catalog.Cache
	cart        *cart.Cart
	minExactLen int

	mu          sync.Mutex
	input       string
	results     []domain.Product
	showResults bool
	highlighted int
	modalOpen   bool
}

func NewSearch(cache *catalog.Cache, c *cart.Cart, minExactLen int) *Search {
	if minExactLen < 1 {
		minExactLen = 8
	}
	return &Search{
		cache:       cache,
		cart:        c,
		minExactLen: minExactLen,
		highlighted: -1,
	}
}

// SetInput reacts to an input change. It reports whether the input
// auto-selected a product (exact-code short circuit), in which case the
// field has already been reset.
func (s *Search) SetInput(ctx context.Context, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = value
	s.highlighted = -1

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		s.results = nil
		s.showResults = false
		return false
	}

	s.results = s.cache.FindBySubstring(trimmed)
	s.showResults = true

	if len(trimmed) >= s.minExactLen {
		if product, ok := s.cache.FindByExactCode(trimmed); ok {
			s.selectLocked(ctx, product)
			return true
		}
	}
	return false
}

func (s *Search) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Results returns the visible result list, or nil when the panel is
// hidden.
func (s *Search) Results() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showResults {
		return nil
	}
	out := make([]domain.Product, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Search) Highlighted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlighted
}

// MoveDown advances the highlight cursor with wraparound.
func (s *Search) MoveDown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showResults || len(s.results) == 0 {
		return
	}
	s.highlighted = (s.highlighted + 1) % len(s.results)
}

// MoveUp moves the highlight cursor back with wraparound.
func (s *Search) MoveUp() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showResults || len(s.results) == 0 {
		return
	}
	s.highlighted = (s.highlighted - 1 + len(s.results)) % len(s.results)
}

// Submit handles Enter: the highlighted entry if any, else the first
// result. It reports whether a selection happened.
func (s *Search) Submit(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showResults || len(s.results) == 0 {
		return false
	}

	index := s.highlighted
	if index < 0 {
		index = 0
	}
	s.selectLocked(ctx, s.results[index])
	return true
}

// SelectIndex selects a specific visible result (mouse click path).
func (s *Search) SelectIndex(ctx context.Context, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showResults || index < 0 || index >= len(s.results) {
		return false
	}
	s.selectLocked(ctx, s.results[index])
	return true
}

// selectLocked adds the product to the cart and resets the search.
// Selection is a terminal action for the search, never a toggle.
func (s *Search) selectLocked(ctx context.Context, product domain.Product) {
	s.cart.AddOrIncrement(ctx, product)

	s.input = ""
	s.results = nil
	s.showResults = false
	s.highlighted = -1
}

// SetModalOpen suspends the focus-stealing while a modal (customer
// form, etc.) is open.
func (s *Search) SetModalOpen(open bool) {
	s.mu.Lock()
	s.modalOpen = open
	s.mu.Unlock()
}

// ShouldRefocus reports whether the search field should reclaim
// keyboard focus after a non-input interaction, so a physical scanner
// can fire at any time.
func (s *Search) ShouldRefocus() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.modalOpen && !s.showResults
}
