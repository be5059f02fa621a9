package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"restate_api/internal/domain"
)

// Store implements domain.DocumentStore against one Appwrite database.
type Store struct {
	c  *Client
	db string
}

type rawDocument map[string]any

func (s *Store) ListDocuments(ctx context.Context, collection string, preds []domain.Predicate) ([]domain.Document, error) {
	q := url.Values{}
	for _, p := range preds {
		enc, err := encodePredicate(p)
		if err != nil {
			return nil, err
		}
		q.Add("queries[]", enc)
	}
	path := fmt.Sprintf("/databases/%s/collections/%s/documents", s.db, collection)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Total     int           `json:"total"`
		Documents []rawDocument `json:"documents"`
	}
	if err := s.c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(out.Documents))
	for _, rd := range out.Documents {
		docs = append(docs, toDocument(rd))
	}
	return docs, nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (domain.Document, error) {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", s.db, collection, id)
	var rd rawDocument
	if err := s.c.do(ctx, http.MethodGet, path, "", nil, &rd); err != nil {
		return domain.Document{}, err
	}
	return toDocument(rd), nil
}

func (s *Store) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (domain.Document, error) {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents", s.db, collection)
	body := map[string]any{"documentId": id, "data": fields}
	var rd rawDocument
	if err := s.c.do(ctx, http.MethodPost, path, "", body, &rd); err != nil {
		return domain.Document{}, err
	}
	return toDocument(rd), nil
}

func toDocument(rd rawDocument) domain.Document {
	d := domain.Document{Fields: map[string]any(rd)}
	if s, ok := rd["$id"].(string); ok {
		d.ID = s
	}
	if s, ok := rd["$collectionId"].(string); ok {
		d.CollectionID = s
	}
	if s, ok := rd["$createdAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			d.CreatedAt = t
		}
	}
	return d
}

// encodePredicate renders one predicate in Appwrite's JSON query syntax.
// A search predicate becomes a single "or" of per-field searches.
func encodePredicate(p domain.Predicate) (string, error) {
	var q map[string]any
	switch p.Op {
	case domain.OpOrderDesc:
		q = map[string]any{"method": "orderDesc", "attribute": p.Field}
	case domain.OpEqual:
		q = map[string]any{"method": "equal", "attribute": p.Field, "values": []any{p.Value}}
	case domain.OpSearch:
		inner := make([]any, 0, len(p.Fields))
		for _, f := range p.Fields {
			inner = append(inner, map[string]any{"method": "search", "attribute": f, "values": []any{p.Value}})
		}
		q = map[string]any{"method": "or", "values": inner}
	case domain.OpLimit:
		q = map[string]any{"method": "limit", "values": []any{p.Count}}
	default:
		return "", fmt.Errorf("unknown predicate op %q", p.Op)
	}
	b, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
