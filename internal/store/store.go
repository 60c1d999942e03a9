// Package store defines the persistence model and repository contracts for
// memoryd: users, collections, and the two persisted credential kinds
// (collection access tokens and personal access tokens).
//
// Repositories are narrow interfaces so any backend can satisfy them. The
// in-memory implementation in this package backs tests and single-node mode.
// Secrets are never stored; repositories only ever see salted hashes.
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all repository implementations.
var (
	// ErrNotFound is returned when a record does not exist. Callers that
	// enforce ownership deliberately surface this instead of a permission
	// error so that resource existence is not confirmed to outsiders.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a unique constraint (username, email,
	// collection name per owner) would be violated.
	ErrDuplicate = errors.New("store: duplicate")
)

// User is an account that can hold collections and issue tokens.
// IsSuperuser is the single source of administrative privilege for
// JWT and PAT identities.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Collection is an owned namespace for documents. All document operations
// are scoped to a collection; ownership is the basis of tenant isolation.
type Collection struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// CatToken is a collection access token (API key). It is bound to exactly
// one collection and carries a read or readwrite permission, never admin.
// OwnerID and CollectionID are empty for environment-configured keys.
type CatToken struct {
	ID           string
	SecretHash   string
	Label        string
	OwnerID      string
	CollectionID string
	Permission   string // "read" or "readwrite"
	ExpiresAt    *time.Time
	IsActive     bool
	LastUsedAt   *time.Time
	CreatedAt    time.Time
}

// PatToken is a personal access token. Scopes are a point-in-time snapshot
// of the issuing user's scopes; later changes to the user do not alter them.
type PatToken struct {
	ID         string
	SecretHash string
	Label      string
	OwnerID    string
	Scopes     []string
	ExpiresAt  *time.Time
	IsActive   bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// UserRepo persists users.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*User, error)
	Search(ctx context.Context, query string) ([]*User, error)
	CountSuperusers(ctx context.Context) (int, error)
}

// CollectionRepo persists collections.
type CollectionRepo interface {
	GetByID(ctx context.Context, id string) (*Collection, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Collection, error)
	Create(ctx context.Context, c *Collection) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// CatRepo persists collection access tokens.
//
// GetByHash must reflect revocations immediately: a token revoked by one
// call must be reported inactive by the very next lookup. TouchLastUsed is
// a best-effort side effect; verification never depends on its success.
type CatRepo interface {
	GetByHash(ctx context.Context, hash string) (*CatToken, error)
	GetByID(ctx context.Context, id string) (*CatToken, error)
	Create(ctx context.Context, t *CatToken) error
	List(ctx context.Context, ownerID string) ([]*CatToken, error)
	ListByCollection(ctx context.Context, collectionID string) ([]*CatToken, error)
	Revoke(ctx context.Context, id string) error
	Rotate(ctx context.Context, id, newHash string) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// PatRepo persists personal access tokens. Same contract notes as CatRepo.
type PatRepo interface {
	GetByHash(ctx context.Context, hash string) (*PatToken, error)
	GetByID(ctx context.Context, id string) (*PatToken, error)
	Create(ctx context.Context, t *PatToken) error
	List(ctx context.Context, ownerID string) ([]*PatToken, error)
	Revoke(ctx context.Context, id string) error
	Rotate(ctx context.Context, id, newHash string) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}
