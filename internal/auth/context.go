package auth

import (
	"context"
	"errors"
	"net/textproto"
	"sync"
)

// Context keys for auth-related values.
type contextKey int

const (
	slotKey contextKey = iota
	credentialKey
	headersKey
)

// ErrIdentitySet is returned by Set when the slot already holds an
// identity. Overwriting without an intervening Clear is a programming
// error in the call pipeline, not a runtime condition to tolerate.
var ErrIdentitySet = errors.New("auth: identity already set for this call")

// slot holds at most one resolved identity for the lifetime of one call.
// It lives on the request context, so two concurrent calls never share one.
type slot struct {
	mu sync.Mutex
	id Identity
}

// NewContext returns a child context carrying an empty identity slot.
// Middleware attaches one slot at call entry; Set, IdentityFrom and Clear
// all operate on that slot.
func NewContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, slotKey, &slot{})
}

// Set stores the resolved identity for this call. It fails if the context
// carries no slot or the slot is already occupied: there is a single setter
// per call and it runs exactly once.
func Set(ctx context.Context, id Identity) error {
	s, _ := ctx.Value(slotKey).(*slot)
	if s == nil {
		return errors.New("auth: context carries no identity slot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != nil {
		return ErrIdentitySet
	}
	s.id = id
	return nil
}

// IdentityFrom returns the identity for this call, or Anonymous when the
// slot is empty or the context carries no slot.
func IdentityFrom(ctx context.Context) Identity {
	s, _ := ctx.Value(slotKey).(*slot)
	if s == nil {
		return Anonymous{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == nil {
		return Anonymous{}
	}
	return s.id
}

// Clear empties the slot. It is idempotent and safe to defer; middleware
// must run it on every exit path, including handler panics and cancelled
// calls, so no identity survives the call that set it.
func Clear(ctx context.Context) {
	s, _ := ctx.Value(slotKey).(*slot)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.id = nil
	s.mu.Unlock()
}

// WithCredential attaches the raw bearer credential extracted by a
// transport layer. Verification happens later in the pipeline.
func WithCredential(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, credentialKey, raw)
}

// CredentialFrom returns the raw credential attached by a transport layer,
// or "" when none is present.
func CredentialFrom(ctx context.Context) string {
	raw, _ := ctx.Value(credentialKey).(string)
	return raw
}

// WithHeaders attaches transport headers for credential extraction by
// layers that cannot see the original request.
func WithHeaders(ctx context.Context, headers map[string][]string) context.Context {
	return context.WithValue(ctx, headersKey, headers)
}

// HeaderFrom returns the first value of a header attached with
// WithHeaders, or "" when absent. Keys are matched in canonical MIME form,
// the way net/http stores them.
func HeaderFrom(ctx context.Context, key string) string {
	h, _ := ctx.Value(headersKey).(map[string][]string)
	if h == nil {
		return ""
	}
	values := h[textproto.CanonicalMIMEHeaderKey(key)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
