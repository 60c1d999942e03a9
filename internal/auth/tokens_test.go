package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/store"
)

type tokenFixture struct {
	db  *store.Memory
	svc *TokenService
}

func newTokenFixture(t *testing.T, cfg TokenConfig) *tokenFixture {
	t.Helper()
	if cfg.HashSalt == "" {
		cfg.HashSalt = testSalt
	}
	db := store.NewMemory()
	svc := NewTokenService(cfg, db.Cats(), db.Pats(), db.Collections(), zap.NewNop())
	return &tokenFixture{db: db, svc: svc}
}

func (f *tokenFixture) addCollection(t *testing.T, ownerID string) *store.Collection {
	t.Helper()
	c := &store.Collection{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      "notes",
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.db.Collections().Create(context.Background(), c))
	return c
}

func ownerIdentity(userID string) Identity {
	return JWTIdentity{UserID: userID, Scopes: DefaultScopes()}
}

func TestIssueCAT(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	coll := f.addCollection(t, "u1")

	secret, token, err := f.svc.IssueCAT(context.Background(), ownerIdentity("u1"),
		coll.ID, "ci token", PermissionRead, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, CATPrefix))
	assert.Equal(t, coll.ID, token.CollectionID)
	assert.Equal(t, string(PermissionRead), token.Permission)
	assert.True(t, token.IsActive)
	assert.Nil(t, token.ExpiresAt)

	// Only the hash is stored.
	stored, err := f.db.Cats().GetByHash(context.Background(), HashSecret(testSalt, secret))
	require.NoError(t, err)
	assert.Equal(t, token.ID, stored.ID)
	assert.NotContains(t, stored.SecretHash, secret)
}

func TestIssueCAT_InvalidPermission(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	coll := f.addCollection(t, "u1")

	_, _, err := f.svc.IssueCAT(context.Background(), ownerIdentity("u1"),
		coll.ID, "", Permission("root"), nil)
	assert.ErrorIs(t, err, ErrInvalidPermission)
}

func TestIssueCAT_CATCallerDenied(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	coll := f.addCollection(t, "u1")

	_, _, err := f.svc.IssueCAT(context.Background(),
		CATIdentity{CollectionID: coll.ID}, coll.ID, "", PermissionRead, nil)
	assert.ErrorIs(t, err, ErrInsufficientPermission)
}

// Foreign collections read as not-found, not forbidden.
func TestIssueCAT_ForeignCollectionMasked(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	coll := f.addCollection(t, "owner")

	_, _, err := f.svc.IssueCAT(context.Background(), ownerIdentity("intruder"),
		coll.ID, "", PermissionRead, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIssueCAT_ExpiryBeyondMaxRejected(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{MaxTTL: time.Hour})
	coll := f.addCollection(t, "u1")

	tooLong := 2 * time.Hour
	_, _, err := f.svc.IssueCAT(context.Background(), ownerIdentity("u1"),
		coll.ID, "", PermissionRead, &tooLong)
	assert.ErrorIs(t, err, ErrExpiryTooLong)

	// Requests inside the bound succeed, never clamped.
	fine := 30 * time.Minute
	_, token, err := f.svc.IssueCAT(context.Background(), ownerIdentity("u1"),
		coll.ID, "", PermissionRead, &fine)
	require.NoError(t, err)
	require.NotNil(t, token.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(fine), *token.ExpiresAt, 5*time.Second)
}

func TestRotateCAT(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	coll := f.addCollection(t, "u1")
	owner := ownerIdentity("u1")

	oldSecret, token, err := f.svc.IssueCAT(context.Background(), owner,
		coll.ID, "rotate me", PermissionReadWrite, nil)
	require.NoError(t, err)

	newSecret, rotated, err := f.svc.RotateCAT(context.Background(), owner, token.ID)
	require.NoError(t, err)

	assert.NotEqual(t, oldSecret, newSecret)
	assert.Equal(t, token.ID, rotated.ID)
	assert.Equal(t, token.Label, rotated.Label)
	assert.Equal(t, token.Permission, rotated.Permission)

	// The old secret no longer resolves; the new one does.
	_, err = f.db.Cats().GetByHash(context.Background(), HashSecret(testSalt, oldSecret))
	assert.ErrorIs(t, err, store.ErrNotFound)
	stored, err := f.db.Cats().GetByHash(context.Background(), HashSecret(testSalt, newSecret))
	require.NoError(t, err)
	assert.Equal(t, token.ID, stored.ID)
}

func TestRevokeCAT(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	coll := f.addCollection(t, "u1")
	owner := ownerIdentity("u1")

	_, token, err := f.svc.IssueCAT(context.Background(), owner, coll.ID, "", PermissionRead, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeCAT(context.Background(), owner, token.ID))

	stored, err := f.db.Cats().GetByID(context.Background(), token.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestListCATs(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	collA := f.addCollection(t, "alice")
	collB := &store.Collection{ID: uuid.NewString(), OwnerID: "bob", Name: "other", CreatedAt: time.Now()}
	require.NoError(t, f.db.Collections().Create(context.Background(), collB))

	_, _, err := f.svc.IssueCAT(context.Background(), ownerIdentity("alice"), collA.ID, "", PermissionRead, nil)
	require.NoError(t, err)
	_, _, err = f.svc.IssueCAT(context.Background(), ownerIdentity("bob"), collB.ID, "", PermissionRead, nil)
	require.NoError(t, err)

	mine, err := f.svc.ListCATs(context.Background(), ownerIdentity("alice"))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.ListCATs(context.Background(), AdminIdentity{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIssuePAT_SnapshotsScopes(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})

	secret, token, err := f.svc.IssuePAT(context.Background(),
		JWTIdentity{UserID: "u1", Scopes: []Scope{ScopeRead}}, "ci", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, PATPrefix))
	assert.Equal(t, []string{"read"}, token.Scopes)
	assert.Equal(t, "u1", token.OwnerID)
}

func TestIssuePAT_CATCallerDenied(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	_, _, err := f.svc.IssuePAT(context.Background(), CATIdentity{CollectionID: "c1"}, "", nil)
	assert.ErrorIs(t, err, ErrInsufficientPermission)
}

func TestRotatePAT_PreservesScopes(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	owner := JWTIdentity{UserID: "u1", Scopes: []Scope{ScopeRead}}

	oldSecret, token, err := f.svc.IssuePAT(context.Background(), owner, "rotate", nil)
	require.NoError(t, err)

	newSecret, rotated, err := f.svc.RotatePAT(context.Background(), owner, token.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldSecret, newSecret)
	assert.Equal(t, []string{"read"}, rotated.Scopes)
}

// PAT management is owner-or-privileged; everyone else reads not-found.
func TestRevokePAT_ForeignMasked(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{})
	_, token, err := f.svc.IssuePAT(context.Background(), ownerIdentity("alice"), "", nil)
	require.NoError(t, err)

	err = f.svc.RevokePAT(context.Background(), ownerIdentity("bob"), token.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, f.svc.RevokePAT(context.Background(), AdminIdentity{}, token.ID))
}

func TestDefaultTTLApplied(t *testing.T) {
	f := newTokenFixture(t, TokenConfig{DefaultTTL: time.Hour})

	_, token, err := f.svc.IssuePAT(context.Background(), ownerIdentity("u1"), "", nil)
	require.NoError(t, err)
	require.NotNil(t, token.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *token.ExpiresAt, 5*time.Second)
}
