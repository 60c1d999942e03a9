package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/store"
)

// secretBytes is the entropy of a generated token secret (32 bytes,
// hex-encoded to 64 characters after the prefix).
const secretBytes = 32

// Token lifecycle errors.
var (
	// ErrExpiryTooLong is returned when a requested expiry exceeds the
	// configured maximum. Requests are rejected, never silently clamped.
	ErrExpiryTooLong = errors.New("auth: requested expiry exceeds maximum")

	// ErrInvalidPermission is returned for an unknown CAT permission value.
	ErrInvalidPermission = errors.New("auth: invalid permission")
)

// TokenConfig bounds token lifetimes.
type TokenConfig struct {
	// HashSalt is the server-side salt for secret hashing. Must match the
	// verifier's.
	HashSalt string

	// DefaultTTL applies when the caller does not request an expiry.
	// Zero means tokens default to non-expiring.
	DefaultTTL time.Duration

	// MaxTTL caps caller-requested expiries. Zero means unbounded.
	MaxTTL time.Duration
}

// TokenService implements the issue/rotate/revoke lifecycle for CAT and
// PAT tokens. Issuance returns the plaintext secret exactly once; only the
// salted hash is stored and the secret is never retrievable again.
type TokenService struct {
	cfg         TokenConfig
	cats        store.CatRepo
	pats        store.PatRepo
	collections store.CollectionRepo
	logger      *zap.Logger
	now         func() time.Time
}

// NewTokenService creates a token lifecycle service.
func NewTokenService(cfg TokenConfig, cats store.CatRepo, pats store.PatRepo, collections store.CollectionRepo, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		cfg:         cfg,
		cats:        cats,
		pats:        pats,
		collections: collections,
		logger:      logger,
		now:         time.Now,
	}
}

// newSecret generates a high-entropy secret with the given prefix.
func newSecret(prefix string) (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token secret: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}

// expiry resolves the effective expiry for a request. A nil requested TTL
// falls back to the configured default; a requested TTL beyond the maximum
// is an error.
func (s *TokenService) expiry(requested *time.Duration) (*time.Time, error) {
	ttl := s.cfg.DefaultTTL
	if requested != nil {
		if *requested <= 0 {
			return nil, errors.New("auth: expiry must be positive")
		}
		if s.cfg.MaxTTL > 0 && *requested > s.cfg.MaxTTL {
			return nil, ErrExpiryTooLong
		}
		ttl = *requested
	}
	if ttl <= 0 {
		return nil, nil
	}
	at := s.now().Add(ttl)
	return &at, nil
}

// canManageCollection reports whether the identity owns the collection or
// is privileged over it. Failures are reported as not-found so existence
// is not confirmed to unauthorized callers.
func (s *TokenService) canManageCollection(ctx context.Context, id Identity, collectionID string) (*store.Collection, error) {
	coll, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if IsPrivileged(id) {
		return coll, nil
	}
	subject, ok := SubjectID(id)
	if !ok || coll.OwnerID != subject {
		return nil, store.ErrNotFound
	}
	return coll, nil
}

// IssueCAT creates a collection access token bound to one collection. The
// caller must be an authenticated JWT/PAT holder that owns the collection
// (or a privileged identity). Returns the plaintext secret and the stored
// record.
func (s *TokenService) IssueCAT(ctx context.Context, id Identity, collectionID, label string, perm Permission, requestedTTL *time.Duration) (string, *store.CatToken, error) {
	switch id.Kind() {
	case KindJWT, KindPAT, KindAdmin:
	default:
		return "", nil, ErrInsufficientPermission
	}
	if !perm.Valid() {
		return "", nil, ErrInvalidPermission
	}
	if _, err := s.canManageCollection(ctx, id, collectionID); err != nil {
		return "", nil, err
	}
	expiresAt, err := s.expiry(requestedTTL)
	if err != nil {
		return "", nil, err
	}

	secret, err := newSecret(CATPrefix)
	if err != nil {
		return "", nil, err
	}
	owner, _ := SubjectID(id)
	token := &store.CatToken{
		ID:           uuid.NewString(),
		SecretHash:   HashSecret(s.cfg.HashSalt, secret),
		Label:        label,
		OwnerID:      owner,
		CollectionID: collectionID,
		Permission:   string(perm),
		ExpiresAt:    expiresAt,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.cats.Create(ctx, token); err != nil {
		return "", nil, fmt.Errorf("storing token: %w", err)
	}
	s.logger.Info("issued collection access token",
		zap.String("token_id", token.ID),
		zap.String("collection_id", collectionID),
		zap.String("permission", token.Permission))
	return secret, token, nil
}

// RotateCAT replaces a token's secret, preserving id, label, collection,
// permission and expiry. The old secret is invalid the instant rotation
// commits. Ownership rules are identical to IssueCAT.
func (s *TokenService) RotateCAT(ctx context.Context, id Identity, tokenID string) (string, *store.CatToken, error) {
	token, err := s.cats.GetByID(ctx, tokenID)
	if err != nil {
		return "", nil, err
	}
	if _, err := s.canManageCollection(ctx, id, token.CollectionID); err != nil {
		return "", nil, err
	}
	secret, err := newSecret(CATPrefix)
	if err != nil {
		return "", nil, err
	}
	if err := s.cats.Rotate(ctx, tokenID, HashSecret(s.cfg.HashSalt, secret)); err != nil {
		return "", nil, err
	}
	rotated, err := s.cats.GetByID(ctx, tokenID)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("rotated collection access token", zap.String("token_id", tokenID))
	return secret, rotated, nil
}

// RevokeCAT flips a token inactive. The next validation of its secret must
// fail; repositories provide that guarantee, the engine never caches.
func (s *TokenService) RevokeCAT(ctx context.Context, id Identity, tokenID string) error {
	token, err := s.cats.GetByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if _, err := s.canManageCollection(ctx, id, token.CollectionID); err != nil {
		return err
	}
	if err := s.cats.Revoke(ctx, tokenID); err != nil {
		return err
	}
	s.logger.Info("revoked collection access token", zap.String("token_id", tokenID))
	return nil
}

// ListCATs lists the caller's tokens; privileged identities see all.
func (s *TokenService) ListCATs(ctx context.Context, id Identity) ([]*store.CatToken, error) {
	if IsPrivileged(id) {
		return s.cats.List(ctx, "")
	}
	subject, ok := SubjectID(id)
	if !ok {
		return nil, ErrInsufficientPermission
	}
	return s.cats.List(ctx, subject)
}

// patScopes snapshots the issuing identity's scopes. The snapshot is
// point-in-time: later promotions or demotions of the user do not alter
// an already issued PAT.
func patScopes(id Identity) ([]Scope, bool) {
	switch v := id.(type) {
	case JWTIdentity:
		return v.Scopes, true
	case PATIdentity:
		return v.Scopes, true
	default:
		return nil, false
	}
}

// IssuePAT creates a personal access token for the calling user,
// snapshotting the caller's scopes at creation time.
func (s *TokenService) IssuePAT(ctx context.Context, id Identity, label string, requestedTTL *time.Duration) (string, *store.PatToken, error) {
	scopes, ok := patScopes(id)
	if !ok {
		return "", nil, ErrInsufficientPermission
	}
	subject, ok := SubjectID(id)
	if !ok {
		return "", nil, ErrInsufficientPermission
	}
	expiresAt, err := s.expiry(requestedTTL)
	if err != nil {
		return "", nil, err
	}

	secret, err := newSecret(PATPrefix)
	if err != nil {
		return "", nil, err
	}
	token := &store.PatToken{
		ID:         uuid.NewString(),
		SecretHash: HashSecret(s.cfg.HashSalt, secret),
		Label:      label,
		OwnerID:    subject,
		Scopes:     ScopeStrings(scopes),
		ExpiresAt:  expiresAt,
		IsActive:   true,
		CreatedAt:  s.now(),
	}
	if err := s.pats.Create(ctx, token); err != nil {
		return "", nil, fmt.Errorf("storing token: %w", err)
	}
	s.logger.Info("issued personal access token",
		zap.String("token_id", token.ID),
		zap.String("owner_id", subject))
	return secret, token, nil
}

// canManagePAT restricts PAT management to the owner or a privileged
// identity, masking foreign tokens as not-found.
func (s *TokenService) canManagePAT(ctx context.Context, id Identity, tokenID string) (*store.PatToken, error) {
	token, err := s.pats.GetByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if IsPrivileged(id) {
		return token, nil
	}
	subject, ok := SubjectID(id)
	if !ok || token.OwnerID != subject {
		return nil, store.ErrNotFound
	}
	return token, nil
}

// RotatePAT replaces a PAT's secret, preserving every other field
// including the scopes snapshot.
func (s *TokenService) RotatePAT(ctx context.Context, id Identity, tokenID string) (string, *store.PatToken, error) {
	if _, err := s.canManagePAT(ctx, id, tokenID); err != nil {
		return "", nil, err
	}
	secret, err := newSecret(PATPrefix)
	if err != nil {
		return "", nil, err
	}
	if err := s.pats.Rotate(ctx, tokenID, HashSecret(s.cfg.HashSalt, secret)); err != nil {
		return "", nil, err
	}
	rotated, err := s.pats.GetByID(ctx, tokenID)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("rotated personal access token", zap.String("token_id", tokenID))
	return secret, rotated, nil
}

// RevokePAT flips a PAT inactive, effective on the next validation.
func (s *TokenService) RevokePAT(ctx context.Context, id Identity, tokenID string) error {
	if _, err := s.canManagePAT(ctx, id, tokenID); err != nil {
		return err
	}
	if err := s.pats.Revoke(ctx, tokenID); err != nil {
		return err
	}
	s.logger.Info("revoked personal access token", zap.String("token_id", tokenID))
	return nil
}

// ListPATs lists the caller's tokens; privileged identities see all.
func (s *TokenService) ListPATs(ctx context.Context, id Identity) ([]*store.PatToken, error) {
	if IsPrivileged(id) {
		return s.pats.List(ctx, "")
	}
	subject, ok := SubjectID(id)
	if !ok {
		return nil, ErrInsufficientPermission
	}
	return s.pats.List(ctx, subject)
}
