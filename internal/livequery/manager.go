// Package livequery wraps a document store subscription with bounded
// exponential retry and explicit cancellation. A handle moves through
// Idle -> Subscribing -> Active <-> Retrying -> Failed, with Cancelled
// terminal from any state; Failed and Cancelled handles never resubscribe.
package livequery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/docstore"
)

// State is the lifecycle state of a subscription handle.
type State int

const (
	StateIdle State = iota
	StateSubscribing
	StateActive
	StateRetrying
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateRetrying:
		return "retrying"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Options configure retry behavior.
type Options struct {
	// MaxRetries bounds the number of resubscription attempts after
	// consecutive failures. Zero means the package default of 3.
	MaxRetries int
	// BackoffBase is the first retry delay; each further consecutive failure
	// doubles it. Zero means the package default of 1 second.
	BackoffBase time.Duration
}

const (
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
)

// Manager creates live subscription handles against a store.
type Manager struct {
	store docstore.Store
	log   *zap.Logger
	opts  Options
}

func NewManager(store docstore.Store, log *zap.Logger, opts Options) *Manager {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	return &Manager{store: store, log: log, opts: opts}
}

// backoffDelay returns base << retries: base, 2*base, 4*base, ...
func backoffDelay(retries int, base time.Duration) time.Duration {
	return base << retries
}

// Handle is one live subscription. At most one underlying store subscription
// is active per handle at any instant; a retry always releases the failed
// subscription before establishing a new one.
type Handle struct {
	m       *Manager
	ctx     context.Context
	query   *docstore.Query
	onData  docstore.SnapshotFunc
	onError docstore.ErrorFunc

	mu        sync.Mutex
	state     State
	retries   int
	unsub     func()
	timer     *time.Timer
	cancelled bool
	errFired  bool
}

// Subscribe opens a live subscription for q. Every snapshot is delivered to
// onData as a full replacement of the previous view. After the retry budget
// is exhausted onError (if non-nil) fires exactly once with the terminal
// error. The caller must Cancel the handle on teardown.
func (m *Manager) Subscribe(ctx context.Context, q *docstore.Query, onData docstore.SnapshotFunc, onError docstore.ErrorFunc) *Handle {
	h := &Handle{
		m:       m,
		ctx:     ctx,
		query:   q,
		onData:  onData,
		onError: onError,
		state:   StateIdle,
	}
	h.subscribe()
	return h
}

// State reports the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Cancel releases the underlying subscription and suppresses any pending
// retry. Calling Cancel more than once is a no-op.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	h.state = StateCancelled
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	unsub := h.unsub
	h.unsub = nil
	h.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (h *Handle) subscribe() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.state = StateSubscribing
	h.mu.Unlock()

	unsub, err := h.m.store.OnSnapshot(h.ctx, h.query, h.handleSnapshot, h.handleError)
	if err != nil {
		h.handleError(err)
		return
	}

	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		unsub()
		return
	}
	h.unsub = unsub
	h.mu.Unlock()
}

func (h *Handle) handleSnapshot(records []docstore.Record) {
	h.mu.Lock()
	if h.cancelled || h.state == StateFailed {
		h.mu.Unlock()
		return
	}
	h.state = StateActive
	// Sustained success forgives past failures.
	h.retries = 0
	h.mu.Unlock()

	h.onData(records)
}

func (h *Handle) handleError(err error) {
	h.mu.Lock()
	if h.cancelled || h.state == StateFailed {
		h.mu.Unlock()
		return
	}

	// Release the failed subscription before anything else so only one
	// underlying subscription can ever be live.
	if h.unsub != nil {
		unsub := h.unsub
		h.unsub = nil
		go unsub()
	}

	if h.retries >= h.m.opts.MaxRetries {
		h.state = StateFailed
		fire := !h.errFired
		h.errFired = true
		h.mu.Unlock()

		h.m.log.Error("live query failed, retries exhausted",
			zap.String("collection", h.query.Collection),
			zap.Int("retries", h.m.opts.MaxRetries),
			zap.Error(err))
		if fire && h.onError != nil {
			h.onError(err)
		}
		return
	}

	delay := backoffDelay(h.retries, h.m.opts.BackoffBase)
	h.retries++
	h.state = StateRetrying
	h.timer = time.AfterFunc(delay, func() {
		// A fired timer must observe cancellation before resubscribing.
		h.mu.Lock()
		if h.cancelled {
			h.mu.Unlock()
			return
		}
		h.timer = nil
		h.mu.Unlock()
		h.subscribe()
	})
	h.mu.Unlock()

	h.m.log.Warn("live query error, scheduling retry",
		zap.String("collection", h.query.Collection),
		zap.Int("attempt", h.retries),
		zap.Duration("delay", delay),
		zap.Error(err))
}
