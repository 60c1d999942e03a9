package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_FailClosedDefault(t *testing.T) {
	p := NewPolicy(map[string]AccessLevel{"known_op": LevelPublic}, "")

	assert.Equal(t, LevelAdmin, p.RequiredLevel("never_registered"))

	err := p.Authorize("never_registered", JWTIdentity{UserID: "u1"})
	require.ErrorIs(t, err, ErrInsufficientPermission)

	// Even a superuser passes the fail-closed gate.
	assert.NoError(t, p.Authorize("never_registered", JWTIdentity{UserID: "u1", Superuser: true}))
}

func TestPolicy_PublicAllowsAnonymous(t *testing.T) {
	p := DefaultPolicy()
	assert.NoError(t, p.Authorize(OpLogin, Anonymous{}))
	assert.NoError(t, p.Authorize(OpHealth, nil))
}

func TestPolicy_AnonymousDeniedAsMissing(t *testing.T) {
	p := DefaultPolicy()
	err := p.Authorize(OpProfile, Anonymous{})
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestPolicy_Authorize(t *testing.T) {
	p := DefaultPolicy()

	jwtUser := JWTIdentity{UserID: "u1", Scopes: DefaultScopes()}
	patUser := PATIdentity{TokenID: "t1", UserID: "u1", Scopes: DefaultScopes()}
	cat := CATIdentity{TokenID: "t2", CollectionID: "c1", Permission: PermissionRead}
	superuser := JWTIdentity{UserID: "root", Superuser: true}
	adminKey := AdminIdentity{Label: "admin_key"}

	tests := []struct {
		name    string
		op      string
		ident   Identity
		allowed bool
	}{
		{"jwt user profile", OpProfile, jwtUser, true},
		{"pat user profile", OpProfile, patUser, true},
		{"cat denied profile", OpProfile, cat, false},
		{"cat denied collection create", OpCollectionCreate, cat, false},
		{"cat allowed document search", OpDocumentSearch, cat, true},
		{"jwt allowed document store", OpDocumentStore, jwtUser, true},
		{"jwt denied admin", OpAdminListUsers, jwtUser, false},
		{"pat denied admin", OpAdminDeleteUser, patUser, false},
		{"superuser allowed admin", OpAdminListUsers, superuser, true},
		{"admin key allowed admin", OpAdminUpdateUser, adminKey, true},
		{"admin key allowed documents", OpDocumentSearch, adminKey, true},
		{"cat denied admin", OpAdminListUsers, cat, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Authorize(tt.op, tt.ident)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInsufficientPermission)
			}
		})
	}
}

func TestPolicy_FilterVisible(t *testing.T) {
	p := DefaultPolicy()
	catalog := []string{
		OpLogin, OpProfile, OpCollectionCreate, OpDocumentSearch,
		OpAdminListUsers, OpAdminUpdateUser, OpAdminDeleteUser,
	}

	t.Run("anonymous sees only public", func(t *testing.T) {
		visible := p.FilterVisible(Anonymous{}, catalog)
		assert.Equal(t, []string{OpLogin}, visible)
	})

	t.Run("jwt user sees non-admin", func(t *testing.T) {
		visible := p.FilterVisible(JWTIdentity{UserID: "u1"}, catalog)
		assert.Equal(t, []string{OpLogin, OpProfile, OpCollectionCreate, OpDocumentSearch}, visible)
	})

	t.Run("cat sees public and documents", func(t *testing.T) {
		visible := p.FilterVisible(CATIdentity{CollectionID: "c1"}, catalog)
		assert.Equal(t, []string{OpLogin, OpDocumentSearch}, visible)
	})

	t.Run("superuser sees everything", func(t *testing.T) {
		visible := p.FilterVisible(JWTIdentity{UserID: "u1", Superuser: true}, catalog)
		assert.Equal(t, catalog, visible)
	})

	// The admin key authorizes broadly but is advertised narrowly: its
	// catalog is exactly the one user-management operation.
	t.Run("admin key sees narrow catalog", func(t *testing.T) {
		visible := p.FilterVisible(AdminIdentity{}, catalog)
		assert.Equal(t, []string{OpAdminUpdateUser}, visible)

		// Authorize still allows more than is advertised.
		assert.NoError(t, p.Authorize(OpAdminDeleteUser, AdminIdentity{}))
	})
}
