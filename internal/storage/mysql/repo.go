package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"restate_api/internal/domain"
)

// Store implements domain.DocumentStore on a single `documents` table,
// one row per document with the payload in a JSON column. It serves the
// self-hosted/dev backend and the integration tests.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (domain.Document, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return domain.Document{}, fmt.Errorf("marshal document %s/%s: %w", collection, id, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertDocumentSQL, collection, id, string(b)); err != nil {
		return domain.Document{}, err
	}
	// read back for the store-assigned timestamp
	return s.GetDocument(ctx, collection, id)
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (domain.Document, error) {
	row := s.db.QueryRowContext(ctx, getDocumentSQL, collection, id)
	d, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Document{}, domain.ErrNotFound
	}
	return d, err
}

func (s *Store) ListDocuments(ctx context.Context, collection string, preds []domain.Predicate) ([]domain.Document, error) {
	q, args, err := buildListSQL(collection, preds)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanDocument(scan func(...any) error) (domain.Document, error) {
	var (
		d         domain.Document
		fieldsRaw []byte
		createdAt sql.NullTime
	)
	if err := scan(&d.ID, &d.CollectionID, &fieldsRaw, &createdAt); err != nil {
		return domain.Document{}, err
	}
	if createdAt.Valid {
		d.CreatedAt = createdAt.Time.UTC()
	}
	d.Fields = map[string]any{}
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &d.Fields); err != nil {
			return domain.Document{}, fmt.Errorf("corrupt document payload %s/%s: %w", d.CollectionID, d.ID, err)
		}
	}
	// keep system attributes visible to the mapping layer, matching the
	// hosted backend's response shape
	d.Fields["$id"] = d.ID
	d.Fields["$createdAt"] = d.CreatedAt.Format(time.RFC3339Nano)
	return d, nil
}
