package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/store"
)

const testSalt = "unit-test-salt"

type verifierFixture struct {
	db       *store.Memory
	jwt      *JWTManager
	verifier *Verifier
}

func newVerifierFixture(t *testing.T) *verifierFixture {
	t.Helper()
	db := store.NewMemory()
	m := newTestJWTManager(t)
	v := NewVerifier(VerifierConfig{
		AdminKey:   "super-secret-admin-key",
		StaticKeys: []string{"static-key-one"},
		HashSalt:   testSalt,
	}, m, db, db.Pats(), db.Cats(), db.Collections(), zap.NewNop())
	return &verifierFixture{db: db, jwt: m, verifier: v}
}

func (f *verifierFixture) addUser(t *testing.T, username string, active, superuser bool) *store.User {
	t.Helper()
	u := &store.User{
		ID:          uuid.NewString(),
		Username:    username,
		Email:       username + "@example.com",
		IsActive:    active,
		IsSuperuser: superuser,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, f.db.Create(context.Background(), u))
	return u
}

func (f *verifierFixture) addCollection(t *testing.T, ownerID, name string) *store.Collection {
	t.Helper()
	c := &store.Collection{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.db.Collections().Create(context.Background(), c))
	return c
}

func (f *verifierFixture) addPAT(t *testing.T, ownerID, secret string, active bool, expiresAt *time.Time) *store.PatToken {
	t.Helper()
	tok := &store.PatToken{
		ID:         uuid.NewString(),
		SecretHash: HashSecret(testSalt, secret),
		Label:      "test",
		OwnerID:    ownerID,
		Scopes:     []string{"read", "write"},
		ExpiresAt:  expiresAt,
		IsActive:   active,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.db.Pats().Create(context.Background(), tok))
	return tok
}

func (f *verifierFixture) addCAT(t *testing.T, ownerID, collectionID, secret string, active bool) *store.CatToken {
	t.Helper()
	tok := &store.CatToken{
		ID:           uuid.NewString(),
		SecretHash:   HashSecret(testSalt, secret),
		Label:        "test",
		OwnerID:      ownerID,
		CollectionID: collectionID,
		Permission:   string(PermissionReadWrite),
		IsActive:     active,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, f.db.Cats().Create(context.Background(), tok))
	return tok
}

func TestVerifier_EmptyCredential(t *testing.T) {
	f := newVerifierFixture(t)
	_, err := f.verifier.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestVerifier_JWT(t *testing.T) {
	f := newVerifierFixture(t)
	pair, err := f.jwt.Issue("u1", "alice", "alice@example.com", true, DefaultScopes())
	require.NoError(t, err)

	ident, err := f.verifier.Resolve(context.Background(), pair.AccessToken)
	require.NoError(t, err)

	jwtIdent, ok := ident.(JWTIdentity)
	require.True(t, ok)
	assert.Equal(t, "u1", jwtIdent.UserID)
	assert.True(t, jwtIdent.Superuser)
	assert.Equal(t, DefaultScopes(), jwtIdent.Scopes)
}

func TestVerifier_JWTRefreshRejected(t *testing.T) {
	f := newVerifierFixture(t)
	pair, err := f.jwt.Issue("u1", "alice", "", false, nil)
	require.NoError(t, err)

	_, err = f.verifier.Resolve(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifier_AdminKey(t *testing.T) {
	f := newVerifierFixture(t)

	ident, err := f.verifier.Resolve(context.Background(), "super-secret-admin-key")
	require.NoError(t, err)
	assert.Equal(t, KindAdmin, ident.Kind())

	ident, err = f.verifier.Resolve(context.Background(), "static-key-one")
	require.NoError(t, err)
	assert.Equal(t, KindAdmin, ident.Kind())
}

func TestVerifier_PAT(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	secret := PATPrefix + "deadbeefcafe"
	tok := f.addPAT(t, u.ID, secret, true, nil)

	ident, err := f.verifier.Resolve(context.Background(), secret)
	require.NoError(t, err)

	patIdent, ok := ident.(PATIdentity)
	require.True(t, ok)
	assert.Equal(t, tok.ID, patIdent.TokenID)
	assert.Equal(t, u.ID, patIdent.UserID)
	assert.False(t, patIdent.Superuser)

	// Successful verification records last use.
	stored, err := f.db.Pats().GetByID(context.Background(), tok.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsedAt)
}

func TestVerifier_PATUnknown(t *testing.T) {
	f := newVerifierFixture(t)
	_, err := f.verifier.Resolve(context.Background(), PATPrefix+"nosuchtoken")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifier_PATRevoked(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	secret := PATPrefix + "revoked"
	f.addPAT(t, u.ID, secret, false, nil)

	_, err := f.verifier.Resolve(context.Background(), secret)
	assert.ErrorIs(t, err, ErrRevokedCredential)
}

// Revocation is immediate: the verifier hits the repository on every call
// and never caches a previous success.
func TestVerifier_PATRevocationImmediate(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	secret := PATPrefix + "soon-revoked"
	tok := f.addPAT(t, u.ID, secret, true, nil)

	_, err := f.verifier.Resolve(context.Background(), secret)
	require.NoError(t, err)

	require.NoError(t, f.db.Pats().Revoke(context.Background(), tok.ID))

	_, err = f.verifier.Resolve(context.Background(), secret)
	assert.ErrorIs(t, err, ErrRevokedCredential)
}

func TestVerifier_PATExpired(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	secret := PATPrefix + "expired"
	past := time.Now().Add(-time.Hour)
	f.addPAT(t, u.ID, secret, true, &past)

	_, err := f.verifier.Resolve(context.Background(), secret)
	assert.ErrorIs(t, err, ErrExpiredCredential)
}

func TestVerifier_PATOrphaned(t *testing.T) {
	f := newVerifierFixture(t)
	secret := PATPrefix + "orphan"
	f.addPAT(t, "no-such-user", secret, true, nil)

	_, err := f.verifier.Resolve(context.Background(), secret)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifier_PATInactiveOwner(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", false, false)
	secret := PATPrefix + "inactive-owner"
	f.addPAT(t, u.ID, secret, true, nil)

	_, err := f.verifier.Resolve(context.Background(), secret)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

// A PAT carries the scope snapshot taken at issuance, not the owner's
// current standing; superuser comes from the owner's live record.
func TestVerifier_PATScopeSnapshot(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	secret := PATPrefix + "snapshot"
	tok := &store.PatToken{
		ID:         uuid.NewString(),
		SecretHash: HashSecret(testSalt, secret),
		OwnerID:    u.ID,
		Scopes:     []string{"read"},
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.db.Pats().Create(context.Background(), tok))

	u.IsSuperuser = true
	require.NoError(t, f.db.Update(context.Background(), u))

	ident, err := f.verifier.Resolve(context.Background(), secret)
	require.NoError(t, err)
	patIdent := ident.(PATIdentity)
	assert.True(t, patIdent.Superuser)
	assert.Equal(t, []Scope{ScopeRead}, patIdent.Scopes)
}

func TestVerifier_CAT(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	coll := f.addCollection(t, u.ID, "notes")
	secret := CATPrefix + "cafebabe"
	tok := f.addCAT(t, u.ID, coll.ID, secret, true)

	ident, err := f.verifier.Resolve(context.Background(), secret)
	require.NoError(t, err)

	catIdent, ok := ident.(CATIdentity)
	require.True(t, ok)
	assert.Equal(t, tok.ID, catIdent.TokenID)
	assert.Equal(t, coll.ID, catIdent.CollectionID)
	assert.Equal(t, "notes", catIdent.CollectionName)
	assert.Equal(t, PermissionReadWrite, catIdent.Permission)
}

// A CAT whose collection no longer resolves is invalid, not a crash.
func TestVerifier_CATUnresolvableCollection(t *testing.T) {
	f := newVerifierFixture(t)
	secret := CATPrefix + "dangling"
	f.addCAT(t, "u1", "no-such-collection", secret, true)

	_, err := f.verifier.Resolve(context.Background(), secret)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifier_CATRevoked(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	coll := f.addCollection(t, u.ID, "notes")
	secret := CATPrefix + "revoked"
	f.addCAT(t, u.ID, coll.ID, secret, false)

	_, err := f.verifier.Resolve(context.Background(), secret)
	assert.ErrorIs(t, err, ErrRevokedCredential)
}

// failingPats wraps a PatRepo so TouchLastUsed always errors.
type failingPats struct {
	store.PatRepo
}

func (f *failingPats) TouchLastUsed(context.Context, string, time.Time) error {
	return errors.New("disk on fire")
}

// A failed last-used write is logged and swallowed; verification still
// succeeds.
func TestVerifier_LastUsedFailureTolerated(t *testing.T) {
	f := newVerifierFixture(t)
	u := f.addUser(t, "alice", true, false)
	secret := PATPrefix + "touchy"
	f.addPAT(t, u.ID, secret, true, nil)

	v := NewVerifier(VerifierConfig{HashSalt: testSalt}, f.jwt,
		f.db, &failingPats{f.db.Pats()}, f.db.Cats(), f.db.Collections(), zap.NewNop())

	ident, err := v.Resolve(context.Background(), secret)
	require.NoError(t, err)
	assert.Equal(t, KindPAT, ident.Kind())
}
