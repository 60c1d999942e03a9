package auth

import "fmt"

// AccessLevel is the authorization requirement of one operation.
type AccessLevel int

const (
	// LevelPublic operations are callable by anyone, including Anonymous.
	LevelPublic AccessLevel = iota

	// LevelUserOrPAT operations require a JWT or PAT identity (any scope).
	LevelUserOrPAT

	// LevelAPIKeyOrUserOrPAT operations accept any non-anonymous
	// credential kind; document-shaped operations live here.
	LevelAPIKeyOrUserOrPAT

	// LevelAdmin operations require a superuser JWT/PAT or the admin key.
	LevelAdmin
)

// String implements fmt.Stringer for log output.
func (l AccessLevel) String() string {
	switch l {
	case LevelPublic:
		return "public"
	case LevelUserOrPAT:
		return "user_or_pat"
	case LevelAPIKeyOrUserOrPAT:
		return "api_key_or_user_or_pat"
	case LevelAdmin:
		return "admin"
	default:
		return fmt.Sprintf("access_level(%d)", int(l))
	}
}

// Policy maps operation names to required access levels and makes the
// allow/deny decision for a resolved identity.
//
// The table is fixed at construction; an operation name absent from it is
// treated as LevelAdmin. That fail-closed default is a deliberate security
// invariant: a newly added operation that nobody classified is not silently
// exposed.
type Policy struct {
	table map[string]AccessLevel

	// adminVisibleOp is the single operation the admin-key identity sees
	// when listing the catalog, deliberately narrower than its Authorize
	// allowance.
	adminVisibleOp string
}

// NewPolicy builds a policy from a table. adminVisibleOp names the one
// operation visible to the admin-key identity in catalog listings.
func NewPolicy(table map[string]AccessLevel, adminVisibleOp string) *Policy {
	copied := make(map[string]AccessLevel, len(table))
	for op, level := range table {
		copied[op] = level
	}
	return &Policy{table: copied, adminVisibleOp: adminVisibleOp}
}

// RequiredLevel returns the level for an operation, LevelAdmin when the
// operation is unknown.
func (p *Policy) RequiredLevel(operation string) AccessLevel {
	if level, ok := p.table[operation]; ok {
		return level
	}
	return LevelAdmin
}

// Authorize decides whether the identity may invoke the operation.
// It returns nil on allow and ErrInsufficientPermission (or
// ErrMissingCredential for anonymous callers) on deny.
func (p *Policy) Authorize(operation string, id Identity) error {
	level := p.RequiredLevel(operation)
	if level == LevelPublic {
		return nil
	}
	if id == nil || id.Kind() == KindAnonymous {
		return ErrMissingCredential
	}
	if p.allowed(level, id) {
		return nil
	}
	return ErrInsufficientPermission
}

func (p *Policy) allowed(level AccessLevel, id Identity) bool {
	switch level {
	case LevelPublic:
		return true
	case LevelUserOrPAT:
		switch id.(type) {
		case JWTIdentity, PATIdentity:
			return true
		}
		return false
	case LevelAPIKeyOrUserOrPAT:
		switch id.(type) {
		case JWTIdentity, PATIdentity, CATIdentity, AdminIdentity:
			return true
		}
		return false
	case LevelAdmin:
		switch v := id.(type) {
		case JWTIdentity:
			return v.Superuser
		case PATIdentity:
			return v.Superuser
		case AdminIdentity:
			return true
		}
		return false
	default:
		return false
	}
}

// FilterVisible returns the subset of the catalog the identity is allowed
// to call, preserving catalog order. The admin-key identity is special:
// it sees only the designated user-management operation even though
// Authorize would allow it more.
func (p *Policy) FilterVisible(id Identity, catalog []string) []string {
	visible := make([]string, 0, len(catalog))
	if id != nil && id.Kind() == KindAdmin {
		for _, op := range catalog {
			if op == p.adminVisibleOp {
				visible = append(visible, op)
			}
		}
		return visible
	}
	for _, op := range catalog {
		if p.Authorize(op, id) == nil {
			visible = append(visible, op)
		}
	}
	return visible
}
