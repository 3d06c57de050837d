package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shefospecial/victoriasystem/internal/domain"
	"github.com/shefospecial/victoriasystem/internal/pubsub"
)

type fakeFingerprints struct {
	fp  domain.CatalogFingerprint
	err error
}

func (f *fakeFingerprints) FetchCatalogFingerprint(context.Context) (domain.CatalogFingerprint, error) {
	if f.err != nil {
		return domain.CatalogFingerprint{}, f.err
	}
	return f.fp, nil
}

type countingReloader struct {
	loads int
	err   error
}

func (r *countingReloader) Load(context.Context) error {
	r.loads++
	return r.err
}

func TestFirstObservationSyncsWithoutReload(t *testing.T) {
	fp := &fakeFingerprints{fp: domain.CatalogFingerprint{LastUpdated: "a", TotalProducts: 10}}
	reloader := &countingReloader{}
	w := NewWatcher(fp, reloader, nil, time.Second, time.Minute)

	w.Poll(context.Background())

	if w.State() != StateSynced {
		t.Fatalf("expected synced, got %s", w.State())
	}
	if reloader.loads != 0 {
		t.Fatalf("first observation must not reload, got %d loads", reloader.loads)
	}
}

func TestChangedFingerprintTriggersExactlyOneReload(t *testing.T) {
	fp := &fakeFingerprints{fp: domain.CatalogFingerprint{LastUpdated: "a", TotalProducts: 10}}
	reloader := &countingReloader{}
	broker := pubsub.NewBroker()
	reloaded := broker.Subscribe(pubsub.TopicCatalogReloaded)
	w := NewWatcher(fp, reloader, broker, time.Second, time.Minute)

	ctx := context.Background()
	w.Poll(ctx)

	fp.fp = domain.CatalogFingerprint{LastUpdated: "b", TotalProducts: 11}
	w.Poll(ctx)
	if reloader.loads != 1 {
		t.Fatalf("expected exactly one reload, got %d", reloader.loads)
	}
	if w.State() != StateSynced {
		t.Fatalf("expected synced after reload, got %s", w.State())
	}
	select {
	case <-reloaded:
	default:
		t.Fatal("expected a reload notification")
	}

	// Unchanged fingerprint: no further reloads.
	w.Poll(ctx)
	w.Poll(ctx)
	if reloader.loads != 1 {
		t.Fatalf("unchanged fingerprint reloaded, got %d loads", reloader.loads)
	}
}

func TestCountChangeAloneTriggersReload(t *testing.T) {
	fp := &fakeFingerprints{fp: domain.CatalogFingerprint{LastUpdated: "a", TotalProducts: 10}}
	reloader := &countingReloader{}
	w := NewWatcher(fp, reloader, nil, time.Second, time.Minute)

	ctx := context.Background()
	w.Poll(ctx)
	fp.fp.TotalProducts = 9
	w.Poll(ctx)

	if reloader.loads != 1 {
		t.Fatalf("expected reload on count change, got %d", reloader.loads)
	}
}

func TestPollErrorLeavesStateUnchanged(t *testing.T) {
	fp := &fakeFingerprints{fp: domain.CatalogFingerprint{LastUpdated: "a", TotalProducts: 10}}
	reloader := &countingReloader{}
	w := NewWatcher(fp, reloader, nil, time.Second, time.Minute)

	ctx := context.Background()
	w.Poll(ctx)

	fp.err = errors.New("network down")
	w.Poll(ctx)
	if w.State() != StateSynced {
		t.Fatalf("poll error changed state to %s", w.State())
	}
	if reloader.loads != 0 {
		t.Fatalf("poll error triggered %d reloads", reloader.loads)
	}
}

func TestReloadFailureKeepsWatcherRunning(t *testing.T) {
	fp := &fakeFingerprints{fp: domain.CatalogFingerprint{LastUpdated: "a", TotalProducts: 10}}
	reloader := &countingReloader{err: errors.New("fetch failed")}
	broker := pubsub.NewBroker()
	reloaded := broker.Subscribe(pubsub.TopicCatalogReloaded)
	w := NewWatcher(fp, reloader, broker, time.Second, time.Minute)

	ctx := context.Background()
	w.Poll(ctx)
	fp.fp.LastUpdated = "b"
	w.Poll(ctx)

	if reloader.loads != 1 {
		t.Fatalf("expected one attempted reload, got %d", reloader.loads)
	}
	select {
	case <-reloaded:
		t.Fatal("failed reload must not publish")
	default:
	}
	// The watcher recorded the new fingerprint; no retry storm.
	w.Poll(ctx)
	if reloader.loads != 1 {
		t.Fatalf("expected no further reloads, got %d", reloader.loads)
	}
}

func TestQuietWindowRaisesHint(t *testing.T) {
	fp := &fakeFingerprints{fp: domain.CatalogFingerprint{LastUpdated: "a", TotalProducts: 10}}
	reloader := &countingReloader{}
	w := NewWatcher(fp, reloader, nil, time.Millisecond, 5*time.Millisecond)

	ctx := context.Background()
	w.Poll(ctx)
	if w.StaleHint() {
		t.Fatal("hint raised immediately after sync")
	}

	time.Sleep(10 * time.Millisecond)
	w.Poll(ctx)
	if !w.StaleHint() {
		t.Fatal("expected quiet-window hint")
	}
}

func TestFocusReloadsAndClearsHint(t *testing.T) {
	fp := &fakeFingerprints{fp: domain.CatalogFingerprint{LastUpdated: "a", TotalProducts: 10}}
	reloader := &countingReloader{}
	w := NewWatcher(fp, reloader, nil, time.Millisecond, 5*time.Millisecond)

	ctx := context.Background()
	w.Poll(ctx)
	time.Sleep(10 * time.Millisecond)
	w.Poll(ctx)
	if !w.StaleHint() {
		t.Fatal("expected hint before focus")
	}

	w.Focus(ctx)
	if reloader.loads != 1 {
		t.Fatalf("focus must reload unconditionally, got %d loads", reloader.loads)
	}
	if w.StaleHint() {
		t.Fatal("focus must clear the hint")
	}
}
