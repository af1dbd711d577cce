// Package worker runs the audit trail consumer: every entry event published
// by the API is appended to the audit_events collection.
package worker

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/hourstack-io/hourstack/internal/docstore"
	mq "github.com/hourstack-io/hourstack/internal/infra/queue"
	"github.com/hourstack-io/hourstack/internal/modules/model"
	"github.com/hourstack-io/hourstack/internal/modules/service"
)

type AuditWorker struct {
	consumer *mq.Consumer
	store    docstore.Store
	log      *zap.Logger
}

func NewAuditWorker(consumer *mq.Consumer, store docstore.Store, log *zap.Logger) *AuditWorker {
	return &AuditWorker{consumer: consumer, store: store, log: log}
}

// Run consumes entry events until ctx is cancelled. A write failure requeues
// the message, so the audit trail is at-least-once.
func (w *AuditWorker) Run(ctx context.Context) error {
	err := w.consumer.Handle(ctx, w.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *AuditWorker) handle(ctx context.Context, body []byte) error {
	var event service.EntryEvent
	if err := sonic.Unmarshal(body, &event); err != nil {
		// A malformed message will never parse; drop it instead of requeueing.
		w.log.Error("dropping malformed entry event", zap.Error(err))
		return nil
	}

	_, err := w.store.AddDoc(ctx, model.CollectionAudit, docstore.Record{
		"type":        event.Type,
		"entry_id":    event.EntryID,
		"project_id":  event.ProjectID,
		"user_id":     event.UserID,
		"date":        event.Date,
		"hours":       event.Hours,
		"occurred_at": event.OccurredAt.Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return err
	}

	w.log.Debug("audit event recorded",
		zap.String("type", event.Type),
		zap.String("entry_id", event.EntryID))
	return nil
}
