package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toplivedeals/toplivedeals/internal/platform/db"
)

const notifyChannel = "docstore_changes"

// PG implements Store on a PostgreSQL documents table. Every mutation sends
// pg_notify on the same transaction so subscribers re-read the collection.
type PG struct {
	pool         *pgxpool.Pool
	logger       *slog.Logger
	pollInterval time.Duration
	now          func() time.Time
}

// Option customizes a PG store.
type Option func(*PG)

// WithPollInterval overrides the missed-notification backstop interval.
func WithPollInterval(d time.Duration) Option {
	return func(p *PG) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *PG) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPG constructs a PostgreSQL-backed store.
func NewPG(pool *pgxpool.Pool, logger *slog.Logger, opts ...Option) *PG {
	p := &PG{
		pool:         pool,
		logger:       logger,
		pollInterval: 30 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// List reads the full collection ordered by creation time.
func (p *PG) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at, id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw); err != nil {
			return nil, fmt.Errorf("docstore: scan %s: %w", collection, err)
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			return nil, fmt.Errorf("docstore: decode %s/%s: %w", collection, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
	}
	return docs, nil
}

// Create inserts a document under a fresh uuid and stamps createdAt/updatedAt
// into the body using the store-native {"seconds": n} shape.
func (p *PG) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	body := cloneData(data)
	stamp := Timestamp(p.now())
	body["createdAt"] = stamp
	body["updatedAt"] = stamp

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s: %w", collection, err)
	}

	err = db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
			collection, id, raw); err != nil {
			return fmt.Errorf("docstore: insert %s: %w", collection, err)
		}
		return notify(ctx, tx, collection)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update merges the given fields over the stored body and re-stamps updatedAt.
func (p *PG) Update(ctx context.Context, collection, id string, data map[string]any) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx,
			`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
			collection, id).Scan(&raw)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("docstore: read %s/%s: %w", collection, id, err)
		}

		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			return fmt.Errorf("docstore: decode %s/%s: %w", collection, id, err)
		}
		body = Merge(body, data)
		body["updatedAt"] = Timestamp(p.now())

		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("docstore: encode %s/%s: %w", collection, id, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE documents SET data = $3, updated_at = now() WHERE collection = $1 AND id = $2`,
			collection, id, encoded); err != nil {
			return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
		}
		return notify(ctx, tx, collection)
	})
}

// Delete removes a document.
func (p *PG) Delete(ctx context.Context, collection, id string) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`,
			collection, id)
		if err != nil {
			return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return notify(ctx, tx, collection)
	})
}

// Subscribe starts a listener loop on a dedicated connection. The first
// snapshot is emitted shortly after subscribing; afterwards a fresh snapshot
// follows every notification for the collection, with a poll interval as a
// backstop for missed notifications.
func (p *PG) Subscribe(ctx context.Context, collection string, onData SnapshotFunc, onError ErrorFunc) (func(), error) {
	loopCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	unsubscribe := func() {
		once.Do(cancel)
	}

	go p.listenLoop(loopCtx, collection, onData, onError)
	return unsubscribe, nil
}

func (p *PG) listenLoop(ctx context.Context, collection string, onData SnapshotFunc, onError ErrorFunc) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		err := p.listenOnce(ctx, collection, onData)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
			p.logger.Warn("docstore subscription error", slog.String("collection", collection), slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (p *PG) listenOnce(ctx context.Context, collection string, onData SnapshotFunc) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("docstore: acquire listener: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("docstore: listen: %w", err)
	}

	emit := func() error {
		docs, err := p.List(ctx, collection)
		if err != nil {
			return err
		}
		onData(docs)
		return nil
	}
	if err := emit(); err != nil {
		return err
	}

	for {
		waitCtx, cancel := context.WithTimeout(ctx, p.pollInterval)
		notification, err := conn.Conn().WaitForNotification(waitCtx)
		cancel()
		switch {
		case err == nil:
			if notification.Payload != collection {
				continue
			}
		case pgconn.Timeout(err) && ctx.Err() == nil:
			// Poll backstop: re-read even without a notification.
		default:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("docstore: wait notification: %w", err)
		}
		if err := emit(); err != nil {
			return err
		}
	}
}

func notify(ctx context.Context, tx pgx.Tx, collection string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		return fmt.Errorf("docstore: notify %s: %w", collection, err)
	}
	return nil
}

// Timestamp renders a time in the store-native shape documents carry.
func Timestamp(t time.Time) map[string]any {
	return map[string]any{"seconds": t.Unix()}
}

// Merge lays patch fields over base without mutating either map.
func Merge(base, patch map[string]any) map[string]any {
	merged := cloneData(base)
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

func cloneData(data map[string]any) map[string]any {
	cloned := make(map[string]any, len(data)+2)
	for k, v := range data {
		cloned[k] = v
	}
	return cloned
}
