// Package auth is the credential engine that gates every memoryd
// operation, over MCP tools and REST routes alike.
//
// Three credential kinds are supported simultaneously: short-lived JWT
// access tokens, long-lived personal access tokens (PAT), and
// collection-scoped access tokens (CAT, API keys), plus a privileged
// environment-configured admin key. The pipeline for one call is:
//
//	Classify -> Verify -> Set (auth context) -> Authorize -> handler -> Clear
//
// Classify is pure format sniffing; the verifiers hold the trust
// decisions. The auth context is a per-call slot on context.Context with a
// single setter and a guaranteed-run clearer, so concurrent calls never
// observe each other's identity. The Policy table fails closed: operations
// it does not know about require admin.
//
// Verifiers and the policy are plain structs constructed once at boot and
// injected by reference; the package keeps no process-wide mutable state.
package auth
