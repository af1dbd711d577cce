package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/docstore"
	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/modules/service"
)

type recordingStore struct {
	docstore.Store
	collection string
	doc        map[string]any
	err        error
}

func (s *recordingStore) AddDoc(_ context.Context, collection string, data map[string]any) (string, error) {
	s.collection = collection
	s.doc = data
	return "doc1", s.err
}

func TestAuditWorker_Handle(t *testing.T) {
	store := &recordingStore{}
	w := NewAuditWorker(nil, store, zap.NewNop())

	event := service.EntryEvent{
		Type:       service.EventEntryCreated,
		EntryID:    "e1",
		ProjectID:  "p1",
		UserID:     "u1",
		Date:       "2026-08-31",
		Hours:      "2.5",
		OccurredAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
	body, err := sonic.Marshal(event)
	require.NoError(t, err)

	assert.NoError(t, w.handle(context.Background(), body))
	assert.Equal(t, model.CollectionAudit, store.collection)
	assert.Equal(t, "entry.created", store.doc["type"])
	assert.Equal(t, "e1", store.doc["entry_id"])
	assert.Equal(t, "2.5", store.doc["hours"])
}

func TestAuditWorker_MalformedMessageIsDropped(t *testing.T) {
	store := &recordingStore{}
	w := NewAuditWorker(nil, store, zap.NewNop())

	// Returning nil acks the message; a poison message must not loop forever.
	assert.NoError(t, w.handle(context.Background(), []byte("{not json")))
	assert.Empty(t, store.collection)
}
