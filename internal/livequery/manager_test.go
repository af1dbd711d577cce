package livequery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/docstore"
)

// scriptedStore fails the first failures OnSnapshot calls, then hands the
// callbacks to the test so it can drive snapshots and errors directly.
type scriptedStore struct {
	docstore.Store

	mu       sync.Mutex
	failures int
	calls    int
	unsubbed int
	onNext   docstore.SnapshotFunc
	onError  docstore.ErrorFunc
}

func (s *scriptedStore) OnSnapshot(_ context.Context, _ *docstore.Query, onNext docstore.SnapshotFunc, onError docstore.ErrorFunc) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("feed unavailable")
	}
	s.onNext = onNext
	s.onError = onError
	return func() {
		s.mu.Lock()
		s.unsubbed++
		s.mu.Unlock()
	}, nil
}

func (s *scriptedStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedStore) unsubCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubbed
}

func newTestManager(store docstore.Store, maxRetries int) *Manager {
	return NewManager(store, zap.NewNop(), Options{
		MaxRetries:  maxRetries,
		BackoffBase: time.Millisecond,
	})
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(0, time.Second))
	assert.Equal(t, 2*time.Second, backoffDelay(1, time.Second))
	assert.Equal(t, 4*time.Second, backoffDelay(2, time.Second))
}

func TestHandle_SnapshotActivatesAndResetsRetries(t *testing.T) {
	store := &scriptedStore{failures: 1}
	m := newTestManager(store, 3)

	h := m.Subscribe(context.Background(), docstore.C("projects"), func([]docstore.Record) {}, nil)
	defer h.Cancel()

	// First attempt failed, a retry is pending.
	assert.Equal(t, StateRetrying, h.State())

	assert.Eventually(t, func() bool {
		return store.callCount() == 2
	}, time.Second, time.Millisecond)

	store.mu.Lock()
	onNext := store.onNext
	store.mu.Unlock()
	onNext(nil)

	assert.Equal(t, StateActive, h.State())
	h.mu.Lock()
	assert.Equal(t, 0, h.retries)
	h.mu.Unlock()
}

func TestHandle_RetriesExhaustedFiresErrorOnce(t *testing.T) {
	// Every attempt fails: the initial subscribe plus MaxRetries retries.
	store := &scriptedStore{failures: 100}
	m := newTestManager(store, 3)

	var mu sync.Mutex
	errCount := 0
	h := m.Subscribe(context.Background(), docstore.C("projects"),
		func([]docstore.Record) {},
		func(error) {
			mu.Lock()
			errCount++
			mu.Unlock()
		})
	defer h.Cancel()

	assert.Eventually(t, func() bool {
		return h.State() == StateFailed
	}, time.Second, time.Millisecond)

	// 1 initial attempt + 3 retries, then no more.
	assert.Equal(t, 4, store.callCount())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 4, store.callCount())

	mu.Lock()
	assert.Equal(t, 1, errCount)
	mu.Unlock()
}

func TestHandle_ErrorAfterActivityRetriesFromScratch(t *testing.T) {
	store := &scriptedStore{}
	m := newTestManager(store, 3)

	h := m.Subscribe(context.Background(), docstore.C("tasks"), func([]docstore.Record) {}, nil)
	defer h.Cancel()

	store.mu.Lock()
	onNext, onError := store.onNext, store.onError
	store.mu.Unlock()

	onNext(nil)
	assert.Equal(t, StateActive, h.State())

	// A feed error releases the subscription and schedules a retry.
	onError(errors.New("feed dropped"))
	assert.Equal(t, StateRetrying, h.State())

	assert.Eventually(t, func() bool {
		return store.callCount() == 2
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool {
		return store.unsubCount() == 1
	}, time.Second, time.Millisecond)
}

func TestHandle_CancelReleasesSubscription(t *testing.T) {
	store := &scriptedStore{}
	m := newTestManager(store, 3)

	h := m.Subscribe(context.Background(), docstore.C("projects"), func([]docstore.Record) {}, nil)

	h.Cancel()
	assert.Equal(t, StateCancelled, h.State())
	assert.Equal(t, 1, store.unsubCount())

	// Idempotent.
	h.Cancel()
	assert.Equal(t, 1, store.unsubCount())
}

func TestHandle_CancelSuppressesPendingRetry(t *testing.T) {
	store := &scriptedStore{failures: 1}
	m := newTestManager(store, 3)

	h := m.Subscribe(context.Background(), docstore.C("projects"), func([]docstore.Record) {}, nil)
	assert.Equal(t, StateRetrying, h.State())

	h.Cancel()

	// The scheduled retry must not resubscribe after cancellation.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, store.callCount())
	assert.Equal(t, StateCancelled, h.State())
}

func TestHandle_SnapshotAfterCancelIsDropped(t *testing.T) {
	store := &scriptedStore{}
	m := newTestManager(store, 3)

	delivered := 0
	h := m.Subscribe(context.Background(), docstore.C("projects"),
		func([]docstore.Record) { delivered++ }, nil)

	store.mu.Lock()
	onNext := store.onNext
	store.mu.Unlock()

	h.Cancel()
	onNext(nil)

	assert.Equal(t, 0, delivered)
}
