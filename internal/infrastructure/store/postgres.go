package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on a single jsonb documents table. The
// conditional increment is one UPDATE whose WHERE clause carries the guard, so
// the check and the write happen atomically inside the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ConnectPostgres establishes a connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// EnsureSchema creates the documents table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			doc        JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		)`)
	return err
}

func (s *PostgresStore) Insert(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, raw)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDuplicateID
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string, out any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(raw, out)
}

func (s *PostgresStore) Find(ctx context.Context, collection string, filter map[string]any, out any) error {
	var (
		rows *sql.Rows
		err  error
	)
	if len(filter) > 0 {
		filterJSON, merr := json.Marshal(filter)
		if merr != nil {
			return merr
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT doc FROM documents WHERE collection = $1 AND doc @> $2`,
			collection, filterJSON)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT doc FROM documents WHERE collection = $1`,
			collection)
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		docs = append(docs, raw)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	combined, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(combined, out)
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET doc = doc || $3 WHERE collection = $1 AND id = $2`,
		collection, id, fieldsJSON)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IncrementIf(ctx context.Context, collection, id, field string, delta, min int) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`UPDATE documents
		 SET doc = jsonb_set(doc, ARRAY[$3], to_jsonb((doc->>$3)::int + $4))
		 WHERE collection = $1 AND id = $2 AND (doc->>$3)::int >= $5
		 RETURNING (doc->>$3)::int`,
		collection, id, field, delta, min).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		// Zero rows means either a failed guard or a missing document.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
			collection, id).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrNotFound
		}
		return 0, ErrConditionFailed
	}
	if err != nil {
		return 0, fmt.Errorf("conditional increment %s/%s: %w", collection, id, err)
	}
	return next, nil
}

func (s *PostgresStore) Increment(ctx context.Context, collection, id, field string, delta int) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`UPDATE documents
		 SET doc = jsonb_set(doc, ARRAY[$3], to_jsonb((doc->>$3)::int + $4))
		 WHERE collection = $1 AND id = $2
		 RETURNING (doc->>$3)::int`,
		collection, id, field, delta).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment %s/%s: %w", collection, id, err)
	}
	return next, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
