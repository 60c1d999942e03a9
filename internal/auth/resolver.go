package auth

// Cross-cutting capability helpers. Business logic uses these instead of
// switching on identity variants itself, so the admin bypass and the
// CAT permission/scope mapping live in exactly one place.

// IsPrivileged reports whether the identity bypasses scope checks:
// superuser JWT/PAT or the admin key.
func IsPrivileged(id Identity) bool {
	switch v := id.(type) {
	case JWTIdentity:
		return v.Superuser
	case PATIdentity:
		return v.Superuser
	case AdminIdentity:
		return true
	default:
		return false
	}
}

// HasWrite reports whether the identity may perform write operations.
// Privileged identities always may; a CAT needs the readwrite permission;
// JWT/PAT need the write scope.
func HasWrite(id Identity) bool {
	if IsPrivileged(id) {
		return true
	}
	switch v := id.(type) {
	case JWTIdentity:
		return containsScope(v.Scopes, ScopeWrite)
	case PATIdentity:
		return containsScope(v.Scopes, ScopeWrite)
	case CATIdentity:
		return v.Permission == PermissionReadWrite
	default:
		return false
	}
}

// HasScope reports whether the identity holds the given scope. Privileged
// identities hold every scope. A CAT's readwrite permission implies read;
// a read-only CAT implies read only.
func HasScope(id Identity, scope Scope) bool {
	if IsPrivileged(id) {
		return true
	}
	switch v := id.(type) {
	case JWTIdentity:
		return containsScope(v.Scopes, scope)
	case PATIdentity:
		return containsScope(v.Scopes, scope)
	case CATIdentity:
		switch scope {
		case ScopeRead:
			return true
		case ScopeWrite:
			return v.Permission == PermissionReadWrite
		}
		return false
	default:
		return false
	}
}

// SubjectID returns the user id the identity acts as, and whether one
// exists. The probe order is fixed: user-shaped identities first, then
// CAT, then PAT. At runtime exactly one variant is active so no tie-break
// occurs, but shared helpers that probe defensively rely on this order.
func SubjectID(id Identity) (string, bool) {
	switch v := id.(type) {
	case JWTIdentity:
		return v.UserID, v.UserID != ""
	case CATIdentity:
		return v.OwnerID, v.OwnerID != ""
	case PATIdentity:
		return v.UserID, v.UserID != ""
	default:
		// Anonymous and the admin key have no user subject.
		return "", false
	}
}
