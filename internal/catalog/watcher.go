package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shefospecial/victoriasystem/internal/domain"
	"github.com/shefospecial/victoriasystem/internal/pubsub"
)

type State int

const (
	// StateUnknown means no fingerprint has been observed yet.
	StateUnknown State = iota
	StateSynced
	// StateStaleDetected means the fingerprint changed and a reload is
	// in flight.
	StateStaleDetected
	// StateQuietHint means no change was observed for the quiet window;
	// a manual-refresh affordance may be surfaced. Purely advisory.
	StateQuietHint
)

func (s State) String() string {
	switch s {
	case StateSynced:
		return "synced"
	case StateStaleDetected:
		return "stale-detected"
	case StateQuietHint:
		return "quiet-hint"
	default:
		return "unknown"
	}
}

// FingerprintFetcher is the slice of the API client the watcher needs.
type FingerprintFetcher interface {
	FetchCatalogFingerprint(ctx context.Context) (domain.CatalogFingerprint, error)
}

// Reloader is satisfied by *Cache.
type Reloader interface {
	Load(ctx context.Context) error
}

// Watcher polls the catalog fingerprint and reloads the cache when it
// changes. The catalog is mutated out-of-band by other sessions, and a
// sale must not run against stale prices without forcing a reload on
// every keystroke, hence the cheap poll.
type Watcher struct {
	fetcher      FingerprintFetcher
	cache        Reloader
	broker       *pubsub.Broker
	pollInterval time.Duration
	quietWindow  time.Duration

	mu         sync.Mutex
	state      State
	last       domain.CatalogFingerprint
	lastChange time.Time

	focus chan struct{}
}

func NewWatcher(fetcher FingerprintFetcher, cache Reloader, broker *pubsub.Broker, pollInterval, quietWindow time.Duration) *Watcher {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	if quietWindow < pollInterval {
		quietWindow = pollInterval
	}
	return &Watcher{
		fetcher:      fetcher,
		cache:        cache,
		broker:       broker,
		pollInterval: pollInterval,
		quietWindow:  quietWindow,
		state:        StateUnknown,
		focus:        make(chan struct{}, 1),
	}
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// StaleHint reports whether the manual-refresh affordance should show.
func (w *Watcher) StaleHint() bool {
	return w.State() == StateQuietHint
}

// Poll fetches the fingerprint and advances the state machine once.
// Fetch failures are logged and swallowed; the state is unchanged and
// the next poll proceeds on schedule.
func (w *Watcher) Poll(ctx context.Context) {
	fp, err := w.fetcher.FetchCatalogFingerprint(ctx)
	if err != nil {
		log.Printf("[catalog] fingerprint poll failed: %v", err)
		return
	}

	w.mu.Lock()
	switch {
	case w.state == StateUnknown:
		w.last = fp
		w.state = StateSynced
		w.lastChange = time.Now()
		w.mu.Unlock()

	case !fp.Equal(w.last):
		w.state = StateStaleDetected
		w.mu.Unlock()

		log.Printf("[catalog] fingerprint changed (token=%q count=%d), reloading", fp.LastUpdated, fp.TotalProducts)
		w.reload(ctx)

		w.mu.Lock()
		w.last = fp
		w.state = StateSynced
		w.lastChange = time.Now()
		w.mu.Unlock()

	default:
		if time.Since(w.lastChange) >= w.quietWindow {
			w.state = StateQuietHint
		}
		w.mu.Unlock()
	}
}

// Focus handles a window/terminal focus-gain: unconditionally reload
// and reset the quiet window, whatever the current state.
func (w *Watcher) Focus(ctx context.Context) {
	w.reload(ctx)

	w.mu.Lock()
	if w.state != StateUnknown {
		w.state = StateSynced
	}
	w.lastChange = time.Now()
	w.mu.Unlock()
}

// RequestFocus queues a focus event for the Run loop; safe from any
// goroutine.
func (w *Watcher) RequestFocus() {
	select {
	case w.focus <- struct{}{}:
	default:
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if err := w.cache.Load(ctx); err != nil {
		// Recoverable: searches keep running against the last good
		// snapshot; cart lines are price snapshots and unaffected.
		log.Printf("[catalog] reload failed, keeping cached contents: %v", err)
		return
	}
	if w.broker != nil {
		w.broker.Publish(pubsub.TopicCatalogReloaded)
	}
}

// Run polls on the configured interval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.Poll(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.focus:
			w.Focus(ctx)
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}
