package auth

// Scope is a capability carried by JWT and PAT identities.
type Scope string

const (
	ScopeRead  Scope = "read"
	ScopeWrite Scope = "write"
	ScopeAdmin Scope = "admin"
)

// DefaultScopes are assumed when a JWT carries no scopes claim.
func DefaultScopes() []Scope { return []Scope{ScopeRead, ScopeWrite} }

// ParseScopes converts stored scope strings into Scopes, dropping unknowns.
func ParseScopes(raw []string) []Scope {
	out := make([]Scope, 0, len(raw))
	for _, s := range raw {
		switch Scope(s) {
		case ScopeRead, ScopeWrite, ScopeAdmin:
			out = append(out, Scope(s))
		}
	}
	return out
}

// ScopeStrings converts Scopes back to plain strings for persistence.
func ScopeStrings(scopes []Scope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}

func containsScope(scopes []Scope, want Scope) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}

// Permission is the capability of a collection access token. CAT tokens are
// bound to exactly one collection and never carry admin, which is why this
// is a distinct type from Scope.
type Permission string

const (
	PermissionRead      Permission = "read"
	PermissionReadWrite Permission = "readwrite"
)

// Valid reports whether p is a known permission value.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionReadWrite
}

// Kind discriminates Identity variants.
type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindJWT       Kind = "jwt"
	KindPAT       Kind = "pat"
	KindCAT       Kind = "cat"
	KindAdmin     Kind = "admin"
)

// Identity is the resolved credential for one in-flight call. It is a
// sealed union: exactly one of the variants below is active per call, and
// callers switch on the concrete type rather than probing nullable fields.
type Identity interface {
	Kind() Kind
	sealed()
}

// Anonymous is the absence of a credential.
type Anonymous struct{}

func (Anonymous) Kind() Kind { return KindAnonymous }
func (Anonymous) sealed()    {}

// JWTIdentity is a caller authenticated with a short-lived access token.
type JWTIdentity struct {
	UserID    string
	Username  string
	Email     string
	Superuser bool
	Scopes    []Scope
}

func (JWTIdentity) Kind() Kind { return KindJWT }
func (JWTIdentity) sealed()    {}

// PATIdentity is a caller authenticated with a personal access token.
// Scopes are the snapshot taken at issuance, not the owner's live scopes.
type PATIdentity struct {
	TokenID   string
	UserID    string
	Username  string
	Email     string
	Superuser bool
	Scopes    []Scope
}

func (PATIdentity) Kind() Kind { return KindPAT }
func (PATIdentity) sealed()    {}

// CATIdentity is a caller authenticated with a collection access token.
// OwnerID may be empty for tokens without an owning user.
type CATIdentity struct {
	TokenID        string
	OwnerID        string
	CollectionID   string
	CollectionName string
	Permission     Permission
}

func (CATIdentity) Kind() Kind { return KindCAT }
func (CATIdentity) sealed()    {}

// AdminIdentity is the environment-configured admin key or a static key.
// It is unrestricted for authorization checks but deliberately sees a
// narrow tool catalog (see Policy.FilterVisible).
type AdminIdentity struct {
	Label string
}

func (AdminIdentity) Kind() Kind { return KindAdmin }
func (AdminIdentity) sealed()    {}
