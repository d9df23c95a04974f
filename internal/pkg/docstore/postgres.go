package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresStore implements Store on a single JSONB table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates the Postgres document store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id UUID NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to ensure documents schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.New().String()

	stored := make(Document, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["id"] = id

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `INSERT INTO documents (collection, id, data, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, collection, id, data, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	var raw []byte
	err := s.db.GetContext(ctx, &raw, query, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, collection, orderByField string) ([]Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 ORDER BY data->>$2 ASC`
	var rows [][]byte
	if err := s.db.SelectContext(ctx, &rows, query, collection, orderByField); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, raw := range rows {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *PostgresStore) Remove(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	res, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
