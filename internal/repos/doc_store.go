package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"minimarket/internal/domain"
)

// Collections of the logical persisted layout.
const (
	CollCarts    = "carritos"
	CollOrders   = "pedidos"
	CollUsers    = "usuarios"
	CollProducts = "productos"
	CollSessions = "sesiones"
)

type Document struct {
	Collection string `db:"collection"`
	Key        string `db:"doc_key"`
	Body       string `db:"body"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

func (d Document) Decode(v any) error { return json.Unmarshal([]byte(d.Body), v) }

// Predicate filters documents in Query and Subscribe. nil matches everything.
type Predicate func(Document) bool

// DocStore keeps JSON documents addressed by (collection, key) in a single
// table and publishes a change notification per collection on every write.
type DocStore struct {
	db   *sqlx.DB
	feed *gochannel.GoChannel
}

func NewDocStore(db *sqlx.DB) *DocStore {
	feed := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	return &DocStore{db: db, feed: feed}
}

// Close stops the change feed; open subscriptions end.
func (s *DocStore) Close() error { return s.feed.Close() }

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func (s *DocStore) notify(collection, key string) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(key))
	if err := s.feed.Publish(collection, msg); err != nil {
		log.Warn().Err(err).Str("collection", collection).Msg("docstore: change notification dropped")
	}
}

func (s *DocStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var d Document
	err := s.db.GetContext(ctx, &d, s.db.Rebind(`
		SELECT collection, doc_key, body, created_at, updated_at
		FROM documents
		WHERE collection = ? AND doc_key = ?
	`), collection, key)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
	}
	if err != nil {
		return Document{}, storageErr("get "+collection, err)
	}
	return d, nil
}

// Set writes the full document, replacing any previous value.
func (s *DocStore) Set(ctx context.Context, collection, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	ts := now()
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO documents(collection, doc_key, body, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(collection, doc_key) DO UPDATE
		SET body = excluded.body, updated_at = excluded.updated_at
	`), collection, key, string(body), ts, ts)
	if err != nil {
		return storageErr("set "+collection, err)
	}
	s.notify(collection, key)
	return nil
}

// Add stores v under a new store-assigned key and returns it.
func (s *DocStore) Add(ctx context.Context, collection string, v any) (string, error) {
	key := uuid.NewString()
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", collection, err)
	}
	ts := now()
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO documents(collection, doc_key, body, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)
	`), collection, key, string(body), ts, ts); err != nil {
		return "", storageErr("add "+collection, err)
	}
	s.notify(collection, key)
	return key, nil
}

// Update merges partial into the top-level fields of an existing document.
func (s *DocStore) Update(ctx context.Context, collection, key string, partial map[string]any) error {
	return s.Modify(ctx, collection, key, func(Document) (map[string]any, error) { return partial, nil })
}

// Modify reads the document and merges the fields fn returns, all in one
// transaction. An error from fn aborts without writing. On Postgres the
// row is locked for the duration; sqlite runs on a single connection.
func (s *DocStore) Modify(ctx context.Context, collection, key string, fn func(Document) (map[string]any, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("update "+collection, err)
	}
	defer func() { _ = tx.Rollback() }()

	q := `SELECT collection, doc_key, body, created_at, updated_at FROM documents WHERE collection = ? AND doc_key = ?`
	if s.db.DriverName() == "postgres" {
		q += ` FOR UPDATE`
	}
	var doc Document
	err = tx.GetContext(ctx, &doc, tx.Rebind(q), collection, key)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", collection, key, domain.ErrNotFound)
	}
	if err != nil {
		return storageErr("update "+collection, err)
	}

	partial, err := fn(doc)
	if err != nil {
		return err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(doc.Body), &fields); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	for k, v := range partial {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s/%s.%s: %w", collection, key, k, err)
		}
		fields[k] = raw
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND doc_key = ?
	`), string(merged), now(), collection, key); err != nil {
		return storageErr("update "+collection, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("update "+collection, err)
	}
	s.notify(collection, key)
	return nil
}

// Delete removes a document. Deleting a missing key is not an error.
func (s *DocStore) Delete(ctx context.Context, collection, key string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM documents WHERE collection = ? AND doc_key = ?`), collection, key)
	if err != nil {
		return storageErr("delete "+collection, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(collection, key)
	}
	return nil
}

// Query returns the documents of a collection matching pred, oldest first.
func (s *DocStore) Query(ctx context.Context, collection string, pred Predicate) ([]Document, error) {
	var rows []Document
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT collection, doc_key, body, created_at, updated_at
		FROM documents
		WHERE collection = ?
		ORDER BY created_at, doc_key
	`), collection); err != nil {
		return nil, storageErr("query "+collection, err)
	}
	if pred == nil {
		return rows, nil
	}
	out := rows[:0]
	for _, d := range rows {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Subscription delivers a full snapshot of the watched query on C, first
// immediately and then after every change to the collection. C is closed
// once the subscription ends.
type Subscription struct {
	C      <-chan []Document
	cancel context.CancelFunc
	done   chan struct{}
}

// Close ends the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *DocStore) Subscribe(ctx context.Context, collection string, pred Predicate) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	changes, err := s.feed.Subscribe(ctx, collection)
	if err != nil {
		cancel()
		return nil, storageErr("subscribe "+collection, err)
	}

	out := make(chan []Document, 1)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer close(out)

		push := func() bool {
			docs, err := s.Query(ctx, collection, pred)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				log.Warn().Err(err).Str("collection", collection).Msg("docstore: snapshot query failed")
				return true
			}
			select {
			case out <- docs:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !push() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-changes:
				if !ok {
					return
				}
				msg.Ack()
				if !push() {
					return
				}
			}
		}
	}()
	return sub, nil
}
