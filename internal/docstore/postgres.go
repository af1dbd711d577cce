package docstore

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is the storage row backing every collection. Fields live in a
// single JSONB column so constraints compile to containment predicates.
type Document struct {
	Collection string            `gorm:"type:text;not null;primaryKey;index:ix_documents_collection" json:"collection"`
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Data       datatypes.JSONMap `gorm:"type:jsonb;not null" json:"data"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

var orderFieldPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// PostgresStore implements Store over a documents table, with write
// notifications published to Redis so OnSnapshot subscribers can re-run
// their query and emit a fresh snapshot.
type PostgresStore struct {
	db  *gorm.DB
	rdb *redis.Client
	log *zap.Logger

	// fetch indirection lets the snapshot loop be driven in tests.
	fetch func(ctx context.Context, q *Query) ([]Record, error)

	// pending collects collections touched inside a transaction; their
	// notifications are published after commit.
	pending *[]string
}

func NewPostgres(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *PostgresStore {
	s := &PostgresStore{db: db, rdb: rdb, log: log}
	s.fetch = s.GetDocs
	return s
}

func channelFor(collection string) string { return "docstore:" + collection }

func (s *PostgresStore) GetDocs(ctx context.Context, q *Query) ([]Record, error) {
	tx := s.db.WithContext(ctx).Where("collection = ?", q.Collection)

	for _, c := range q.Constraints {
		frag, err := containmentJSON(c)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("data @> ?", frag)
	}

	order := "created_at ASC, id ASC"
	if q.OrderField != "" {
		if !orderFieldPattern.MatchString(q.OrderField) {
			return nil, errors.New("invalid order field")
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		order = "data->>'" + q.OrderField + "' " + dir + ", id ASC"
	}
	tx = tx.Order(order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var docs []Document
	if err := tx.Find(&docs).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, recordOf(d))
	}
	return records, nil
}

// containmentJSON compiles a constraint to the JSON fragment used with the
// JSONB @> operator. Equality wraps the value in an object, array-contains
// additionally wraps it in a single-element array.
func containmentJSON(c Constraint) (string, error) {
	var v any
	switch c.Op {
	case OpEqual:
		v = c.Value
	case OpArrayContains:
		v = []any{c.Value}
	default:
		return "", errors.New("unsupported constraint op: " + string(c.Op))
	}
	b, err := sonic.Marshal(map[string]any{c.Field: v})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func recordOf(d Document) Record {
	rec := make(Record, len(d.Data)+1)
	for k, v := range d.Data {
		rec[k] = v
	}
	rec["id"] = d.ID.String()
	return rec
}

func (s *PostgresStore) GetDoc(ctx context.Context, collection, id string) (Record, error) {
	doc, err := s.getDocument(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return recordOf(*doc), nil
}

func (s *PostgresStore) getDocument(ctx context.Context, collection, id string) (*Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc Document
	err = s.reader(ctx).
		Where("collection = ? AND id = ?", collection, docID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// reader returns a query handle for document reads. Inside a transaction the
// read takes a row lock, so two concurrent read-modify-write cycles on the
// same document serialize instead of the second commit discarding the first.
func (s *PostgresStore) reader(ctx context.Context) *gorm.DB {
	tx := s.db.WithContext(ctx)
	if s.pending != nil {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *PostgresStore) AddDoc(ctx context.Context, collection string, data map[string]any) (string, error) {
	doc := Document{
		Collection: collection,
		ID:         uuid.New(),
		Data:       datatypes.JSONMap(data),
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return "", err
	}
	s.notify(ctx, collection)
	return doc.ID.String(), nil
}

func (s *PostgresStore) SetDoc(ctx context.Context, collection, id string, data map[string]any) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("document id must be a uuid")
	}
	doc := Document{
		Collection: collection,
		ID:         docID,
		Data:       datatypes.JSONMap(data),
	}
	if err := s.db.WithContext(ctx).Save(&doc).Error; err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// UpdateDoc merges fields into the document. It rewrites the whole JSONB
// value, so outside a caller-supplied transaction it opens its own to hold
// the row lock across the read-modify-write cycle.
func (s *PostgresStore) UpdateDoc(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.pending == nil {
		return s.RunTransaction(ctx, func(tx Store) error {
			return tx.UpdateDoc(ctx, collection, id, fields)
		})
	}
	doc, err := s.getDocument(ctx, collection, id)
	if err != nil {
		return err
	}
	for k, v := range fields {
		if _, drop := v.(fieldDelete); drop {
			delete(doc.Data, k)
			continue
		}
		doc.Data[k] = v
	}
	if err := s.db.WithContext(ctx).Save(doc).Error; err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

func (s *PostgresStore) DeleteDoc(ctx context.Context, collection, id string) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, docID).
		Delete(&Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx, collection)
	return nil
}

func (s *PostgresStore) ArrayUnion(ctx context.Context, collection, id, field string, value any) error {
	if s.pending == nil {
		return s.RunTransaction(ctx, func(tx Store) error {
			return tx.ArrayUnion(ctx, collection, id, field, value)
		})
	}
	doc, err := s.getDocument(ctx, collection, id)
	if err != nil {
		return err
	}
	arr, _ := doc.Data[field].([]any)
	for _, existing := range arr {
		if jsonEqual(existing, value) {
			return nil
		}
	}
	doc.Data[field] = append(arr, value)
	if err := s.db.WithContext(ctx).Save(doc).Error; err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

func (s *PostgresStore) ArrayRemove(ctx context.Context, collection, id, field string, value any) error {
	if s.pending == nil {
		return s.RunTransaction(ctx, func(tx Store) error {
			return tx.ArrayRemove(ctx, collection, id, field, value)
		})
	}
	doc, err := s.getDocument(ctx, collection, id)
	if err != nil {
		return err
	}
	arr, _ := doc.Data[field].([]any)
	kept := make([]any, 0, len(arr))
	for _, existing := range arr {
		if !jsonEqual(existing, value) {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(arr) {
		return nil
	}
	doc.Data[field] = kept
	if err := s.db.WithContext(ctx).Save(doc).Error; err != nil {
		return err
	}
	s.notify(ctx, collection)
	return nil
}

// jsonEqual compares two values by their JSON encoding. Array members here
// are ids and other scalars, so encoding equality is sufficient.
func jsonEqual(a, b any) bool {
	ab, err := sonic.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := sonic.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

func (s *PostgresStore) RunTransaction(ctx context.Context, fn func(tx Store) error) error {
	touched := make([]string, 0, 2)
	err := s.db.WithContext(ctx).Transaction(func(txdb *gorm.DB) error {
		txStore := &PostgresStore{db: txdb, log: s.log, pending: &touched}
		txStore.fetch = txStore.GetDocs
		return fn(txStore)
	})
	if err != nil {
		return err
	}
	for _, collection := range touched {
		s.notify(ctx, collection)
	}
	return nil
}

// notify publishes a change signal for a collection, or records it for
// publication after commit when running inside a transaction.
func (s *PostgresStore) notify(ctx context.Context, collection string) {
	if s.pending != nil {
		*s.pending = append(*s.pending, collection)
		return
	}
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Publish(ctx, channelFor(collection), "changed").Err(); err != nil {
		s.log.Warn("change feed publish failed",
			zap.String("collection", collection),
			zap.Error(err))
	}
}

func (s *PostgresStore) OnSnapshot(ctx context.Context, q *Query, onNext SnapshotFunc, onError ErrorFunc) (func(), error) {
	if s.rdb == nil {
		return nil, errors.New("change feed unavailable: store has no redis client")
	}

	sub := s.rdb.Subscribe(ctx, channelFor(q.Collection))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			_ = sub.Close()
		})
	}

	go s.watch(watchCtx, sub, q, onNext, onError, unsubscribe)
	return unsubscribe, nil
}

func (s *PostgresStore) watch(ctx context.Context, sub *redis.PubSub, q *Query, onNext SnapshotFunc, onError ErrorFunc, unsubscribe func()) {
	emit := func() bool {
		records, err := s.fetch(ctx, q)
		if err != nil {
			if ctx.Err() == nil && onError != nil {
				onError(err)
			}
			unsubscribe()
			return false
		}
		onNext(records)
		return true
	}

	// Initial snapshot, then one per change notification.
	if !emit() {
		return
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				if ctx.Err() == nil && onError != nil {
					onError(errors.New("change feed closed"))
				}
				unsubscribe()
				return
			}
			if !emit() {
				return
			}
		}
	}
}
