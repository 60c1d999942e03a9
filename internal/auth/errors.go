package auth

import "errors"

// Sentinel errors for authentication and authorization. All credential
// failures are expected outcomes, not faults: verifiers return these
// instead of panicking, and none are retried automatically.
var (
	// ErrMissingCredential means no Authorization header (or equivalent)
	// was presented on a non-public operation.
	ErrMissingCredential = errors.New("auth: missing credential")

	// ErrMalformedCredential means a header was present but not
	// "Bearer <token>" shaped, or the token was empty after stripping.
	ErrMalformedCredential = errors.New("auth: malformed credential")

	// ErrInvalidCredential means the classifier picked a verifier but the
	// credential failed verification (bad signature, unknown hash, wrong
	// token-type claim, orphaned owner).
	ErrInvalidCredential = errors.New("auth: invalid credential")

	// ErrExpiredCredential means the credential was structurally valid but
	// past its expiry.
	ErrExpiredCredential = errors.New("auth: credential expired")

	// ErrRevokedCredential means the credential was structurally valid but
	// has been revoked.
	ErrRevokedCredential = errors.New("auth: credential revoked")

	// ErrInsufficientPermission means a valid identity was denied the
	// specific operation. Unknown operation names surface as this error via
	// the fail-closed policy default.
	ErrInsufficientPermission = errors.New("auth: insufficient permission")

	// ErrSelfProtection means a privileged identity attempted a disallowed
	// operation on its own account, such as self-deletion.
	ErrSelfProtection = errors.New("auth: self-protection violation")
)
