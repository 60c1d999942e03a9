package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	db := store.NewMemory()
	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{
		Secret:     []byte("test-secret-test-secret-32bytes!"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	return NewService(db, jwtManager, zap.NewNop()), db
}

// identityContext returns a context carrying the given resolved identity,
// the way middleware would have left it.
func identityContext(t *testing.T, ident auth.Identity) context.Context {
	t.Helper()
	ctx := auth.NewContext(context.Background())
	require.NoError(t, auth.Set(ctx, ident))
	return ctx
}

func TestRegister_FirstUserIsSuperuser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.True(t, first.IsSuperuser)
	assert.True(t, first.IsActive)

	second, err := svc.Register(ctx, "bob", "bob@example.com", "hunter22")
	require.NoError(t, err)
	assert.False(t, second.IsSuperuser)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "other@example.com", "pw")
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	t.Run("by username", func(t *testing.T) {
		pair, u, err := svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Equal(t, "alice", u.Username)
	})

	t.Run("by email", func(t *testing.T) {
		_, u, err := svc.Login(ctx, "alice@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody", "hunter22")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, db.Update(ctx, u))

	_, _, err = svc.Login(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestRefresh(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	t.Run("access token rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})

	t.Run("deleted user rejected", func(t *testing.T) {
		// Need a second superuser so the delete goes through.
		admin, err := svc.Register(ctx, "root", "root@example.com", "pw")
		require.NoError(t, err)
		admin.IsSuperuser = true
		require.NoError(t, db.Update(ctx, admin))

		adminCtx := identityContext(t, auth.JWTIdentity{UserID: admin.ID, Superuser: true})
		require.NoError(t, svc.Delete(adminCtx, u.ID))

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidCredential)
	})
}

func TestProfile(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	ctx := identityContext(t, auth.JWTIdentity{UserID: u.ID})
	got, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Profile(context.Background())
	assert.ErrorIs(t, err, auth.ErrInsufficientPermission)
}

// Self-deletion is refused before any other check, whatever the caller's
// privilege.
func TestDelete_SelfProtection(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.Register(context.Background(), "root", "root@example.com", "pw")
	require.NoError(t, err)

	ctx := identityContext(t, auth.JWTIdentity{UserID: u.ID, Superuser: true})
	err = svc.Delete(ctx, u.ID)
	assert.ErrorIs(t, err, auth.ErrSelfProtection)
}

func TestDelete_LastSuperuser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.Register(ctx, "root", "root@example.com", "pw")
	require.NoError(t, err)

	// The admin key has no user subject, so self-protection does not trip.
	adminCtx := identityContext(t, auth.AdminIdentity{})
	err = svc.Delete(adminCtx, root.ID)
	assert.ErrorIs(t, err, ErrLastSuperuser)
}

func TestUpdate_LastSuperuserGuard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.Register(ctx, "root", "root@example.com", "pw")
	require.NoError(t, err)

	demote := false
	_, err = svc.Update(ctx, root.ID, UpdateParams{IsSuperuser: &demote})
	assert.ErrorIs(t, err, ErrLastSuperuser)

	deactivate := false
	_, err = svc.Update(ctx, root.ID, UpdateParams{IsActive: &deactivate})
	assert.ErrorIs(t, err, ErrLastSuperuser)

	// With a second superuser the demotion goes through.
	other, err := svc.Register(ctx, "root2", "root2@example.com", "pw")
	require.NoError(t, err)
	promote := true
	_, err = svc.Update(ctx, other.ID, UpdateParams{IsSuperuser: &promote})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, root.ID, UpdateParams{IsSuperuser: &demote})
	require.NoError(t, err)
	assert.False(t, updated.IsSuperuser)
}

func TestUpdate_Fields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	email := "new@example.com"
	password := "new-password"
	updated, err := svc.Update(ctx, u.ID, UpdateParams{Email: &email, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)

	_, _, err = svc.Login(ctx, "alice", "new-password")
	require.NoError(t, err)
}
