package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/shefospecial/victoriasystem/internal/domain"
)

// ErrPrintIncomplete means the target was force-closed at the timeout
// without printing ever being observed to complete.
var ErrPrintIncomplete = errors.New("print target closed before printing completed")

// Handle is an open print target holding a rendered document.
type Handle interface {
	// Print sends the document to the printer. Slow-initializing
	// targets may fail early attempts and succeed on a retry.
	Print() error
	Close() error
}

// Sink creates transient print targets. The retry and timeout policy is
// implemented against this capability so it is testable without a real
// display.
type Sink interface {
	Open(document string) (Handle, error)
}

// Printer renders sales and drives the print-target lifecycle: a
// schedule of delayed print attempts (to absorb slow target
// initialization), auto-close once printing completes, and a hard
// timeout that force-closes the target so the operator is never left
// with an orphaned print window.
type Printer struct {
	formatter    Formatter
	sink         Sink
	fallback     Sink
	retryDelays  []time.Duration
	closeTimeout time.Duration
}

func NewPrinter(formatter Formatter, sink Sink, fallback Sink, retryDelays []time.Duration, closeTimeout time.Duration) *Printer {
	if len(retryDelays) == 0 {
		retryDelays = []time.Duration{time.Second, 3 * time.Second}
	}
	if closeTimeout <= 0 {
		closeTimeout = 15 * time.Second
	}
	return &Printer{
		formatter:    formatter,
		sink:         sink,
		fallback:     fallback,
		retryDelays:  retryDelays,
		closeTimeout: closeTimeout,
	}
}

func (p *Printer) Print(ctx context.Context, sale domain.SaleReceipt) error {
	document := p.formatter.Format(sale)

	handle, err := p.sink.Open(document)
	if err != nil {
		// The transient target being blocked must not make printing
		// impossible; fall back to the current display surface.
		if p.fallback == nil {
			return fmt.Errorf("open print target: %w", err)
		}
		log.Printf("[receipt] print target unavailable (%v), using in-page fallback", err)
		handle, err = p.fallback.Open(document)
		if err != nil {
			return fmt.Errorf("open fallback print target: %w", err)
		}
	}

	j := newJob(handle)
	timers := make([]*time.Timer, 0, len(p.retryDelays)+1)
	for _, delay := range p.retryDelays {
		timers = append(timers, time.AfterFunc(delay, j.tryPrint))
	}
	timers = append(timers, time.AfterFunc(p.closeTimeout, j.forceClose))
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	select {
	case <-j.done:
	case <-ctx.Done():
		j.forceClose()
		return ctx.Err()
	}

	if !j.succeeded() {
		return ErrPrintIncomplete
	}
	return nil
}

// job tracks one print-target lifecycle. The scheduled attempts and the
// timeout close are independent callbacks, so every transition is
// idempotent: an attempt on an already-closed target is a no-op.
type job struct {
	handle Handle

	mu      sync.Mutex
	printed bool
	closed  bool
	done    chan struct{}
}

func newJob(handle Handle) *job {
	return &job{handle: handle, done: make(chan struct{})}
}

func (j *job) tryPrint() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.printed {
		return
	}
	if err := j.handle.Print(); err != nil {
		log.Printf("[receipt] print attempt failed: %v", err)
		return
	}
	j.printed = true
	j.closeLocked()
}

func (j *job) forceClose() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closeLocked()
}

func (j *job) closeLocked() {
	if j.closed {
		return
	}
	j.closed = true
	if err := j.handle.Close(); err != nil {
		log.Printf("[receipt] close print target: %v", err)
	}
	close(j.done)
}

func (j *job) succeeded() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.printed
}

// WriterSink is the terminal's real print target: the document goes to
// an attached writer (stdout, a spool file, a printer device).
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Open(document string) (Handle, error) {
	return &writerHandle{w: s.W, document: document}, nil
}

type writerHandle struct {
	w        io.Writer
	document string
}

func (h *writerHandle) Print() error {
	_, err := io.WriteString(h.w, h.document)
	return err
}

func (h *writerHandle) Close() error {
	return nil
}
