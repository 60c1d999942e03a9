package auth

import "strings"

// Prefixes for ordinarily issued token secrets. Environment-configured
// static keys and the admin key are raw opaque strings with no prefix.
const (
	// PATPrefix marks personal access token secrets.
	PATPrefix = "mem_pat_"

	// CATPrefix marks collection access token secrets.
	CATPrefix = "mem_cat_"
)

// CredentialKind is the classifier's guess at what a raw bearer string is.
// Classification is format sniffing only and never grants trust by itself;
// the matching verifier still has to accept the credential.
type CredentialKind string

const (
	CredentialJWT CredentialKind = "jwt"
	CredentialPAT CredentialKind = "pat"
	CredentialCAT CredentialKind = "cat"
)

// Classify inspects a raw bearer string (already stripped of the "Bearer "
// prefix) and decides which verifier to try.
//
// Rules, in order:
//   - PATPrefix literal: PAT-shaped. This is checked first so a PAT whose
//     random suffix happens to contain two dots never classifies as a JWT.
//   - exactly three dot-separated non-empty segments: JWT-shaped
//   - anything else: CAT-shaped, which includes the admin key and static
//     environment keys
//
// Empty strings are not bearer-eligible and must be rejected before
// classification runs; Classify assumes a non-empty input.
func Classify(raw string) CredentialKind {
	if strings.HasPrefix(raw, PATPrefix) {
		return CredentialPAT
	}
	parts := strings.Split(raw, ".")
	if len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "" {
		return CredentialJWT
	}
	return CredentialCAT
}
