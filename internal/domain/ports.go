package domain

import (
	"context"
	"time"
)

// Document is a raw record from the document store. Fields holds the
// payload as decoded JSON; system attributes ($id, $createdAt) are lifted
// into the struct.
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    time.Time
	Fields       map[string]any
}

// Collections names the collections the service reads from. All ids are
// required; Load/Validate reject an empty one at startup.
type Collections struct {
	Properties string
	Agents     string
	Galleries  string
	Reviews    string
}

// DocumentStore is the backend the Query Composer talks to. Predicates
// are applied in the order given.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collection string, preds []Predicate) ([]Document, error)
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (Document, error)
}

type Session struct {
	ID        string
	UserID    string
	Secret    string
	ExpiresAt time.Time
}

type UserProfile struct {
	ID     string
	Name   string
	Email  string
	Avatar string // initials-avatar URL
}

// Identity is the session provider. Calls are stateless; the session
// secret travels with each request.
type Identity interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Logout(ctx context.Context, sessionSecret string) error
	// CurrentUser returns (nil, nil) when the secret names no live session.
	CurrentUser(ctx context.Context, sessionSecret string) (*UserProfile, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
