package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(id, username string) *User {
	return &User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

func TestUsers_CRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, newUser("u1", "alice")))

	got, err := m.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = m.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = m.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got.Email = "new@example.com"
	require.NoError(t, m.Update(ctx, got))
	updated, err := m.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)

	require.NoError(t, m.Delete(ctx, "u1"))
	_, err = m.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, "u1"), ErrNotFound)
}

func TestUsers_DuplicateDetection(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, newUser("u1", "alice")))

	err := m.Create(ctx, newUser("u2", "alice"))
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail := newUser("u3", "carol")
	byEmail.Email = "alice@example.com"
	assert.ErrorIs(t, m.Create(ctx, byEmail), ErrDuplicate)
}

func TestUsers_ListAndSearch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, newUser("u1", "carol")))
	require.NoError(t, m.Create(ctx, newUser("u2", "alice")))
	require.NoError(t, m.Create(ctx, newUser("u3", "bob")))

	all, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Sorted by username.
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, "carol", all[2].Username)

	hits, err := m.Search(ctx, "AL")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].Username)
}

func TestUsers_CountSuperusers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	root := newUser("u1", "root")
	root.IsSuperuser = true
	require.NoError(t, m.Create(ctx, root))

	inactive := newUser("u2", "retired")
	inactive.IsSuperuser = true
	inactive.IsActive = false
	require.NoError(t, m.Create(ctx, inactive))

	require.NoError(t, m.Create(ctx, newUser("u3", "alice")))

	n, err := m.CountSuperusers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollections_CRUD(t *testing.T) {
	m := NewMemory()
	repo := m.Collections()
	ctx := context.Background()

	c := &Collection{ID: "c1", OwnerID: "u1", Name: "notes", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, c))

	// Same name under the same owner is a conflict; another owner is fine.
	dup := &Collection{ID: "c2", OwnerID: "u1", Name: "notes"}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)
	other := &Collection{ID: "c3", OwnerID: "u2", Name: "notes"}
	require.NoError(t, repo.Create(ctx, other))

	require.NoError(t, repo.Rename(ctx, "c1", "journal"))
	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "journal", got.Name)

	mine, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCats_HashLookupAndLifecycle(t *testing.T) {
	m := NewMemory()
	repo := m.Cats()
	ctx := context.Background()

	tok := &CatToken{
		ID:           "t1",
		SecretHash:   "hash-a",
		OwnerID:      "u1",
		CollectionID: "c1",
		Permission:   "read",
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(ctx, tok))

	got, err := repo.GetByHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	_, err = repo.GetByHash(ctx, "hash-b")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Rotate(ctx, "t1", "hash-b"))
	_, err = repo.GetByHash(ctx, "hash-a")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = repo.GetByHash(ctx, "hash-b")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	// Revocation shows up on the very next lookup.
	require.NoError(t, repo.Revoke(ctx, "t1"))
	got, err = repo.GetByHash(ctx, "hash-b")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	at := time.Now()
	require.NoError(t, repo.TouchLastUsed(ctx, "t1", at))
	got, err = repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.True(t, got.LastUsedAt.Equal(at))
}

func TestCats_ListScopes(t *testing.T) {
	m := NewMemory()
	repo := m.Cats()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, repo.Create(ctx, &CatToken{ID: "t1", SecretHash: "h1", OwnerID: "alice", CollectionID: "c1", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &CatToken{ID: "t2", SecretHash: "h2", OwnerID: "bob", CollectionID: "c2", CreatedAt: base.Add(time.Second)}))

	mine, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "t1", mine[0].ID)

	// Empty owner lists everything.
	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bound, err := repo.ListByCollection(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, bound, 1)
	assert.Equal(t, "t2", bound[0].ID)
}

func TestPats_Lifecycle(t *testing.T) {
	m := NewMemory()
	repo := m.Pats()
	ctx := context.Background()

	tok := &PatToken{
		ID:         "p1",
		SecretHash: "hash-a",
		OwnerID:    "u1",
		Scopes:     []string{"read", "write"},
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, repo.Create(ctx, tok))

	got, err := repo.GetByHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, got.Scopes)

	require.NoError(t, repo.Rotate(ctx, "p1", "hash-b"))
	got, err = repo.GetByHash(ctx, "hash-b")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	require.NoError(t, repo.Revoke(ctx, "p1"))
	got, err = repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, repo.Revoke(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, repo.Rotate(ctx, "missing", "h"), ErrNotFound)
	assert.ErrorIs(t, repo.TouchLastUsed(ctx, "missing", time.Now()), ErrNotFound)
}

// The store hands out clones; callers mutating a returned record must not
// affect stored state until they call Update.
func TestCloneIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, newUser("u1", "alice")))
	got, err := m.GetByID(ctx, "u1")
	require.NoError(t, err)
	got.Username = "mallory"

	fresh, err := m.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.Username)

	pat := &PatToken{ID: "p1", SecretHash: "h", OwnerID: "u1", Scopes: []string{"read"}, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, m.Pats().Create(ctx, pat))
	pat.Scopes[0] = "admin"

	stored, err := m.Pats().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, stored.Scopes)
}
