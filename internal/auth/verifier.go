package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/store"
)

// VerifierConfig holds the static credential material the verifier checks
// before touching any repository.
type VerifierConfig struct {
	// AdminKey is the privileged environment-configured key. Empty
	// disables it.
	AdminKey string

	// StaticKeys are additional environment-configured keys that resolve
	// to the same synthetic privileged identity.
	StaticKeys []string

	// HashSalt is the server-side salt used for token secret hashing.
	HashSalt string
}

// Verifier resolves raw bearer credentials to identities. All methods are
// safe for concurrent use; repository lookups may block, and last-used
// touches are best-effort and never fail verification.
//
// Every verifier returns one of the credential sentinel errors for the
// expected failure modes; an invalid credential is an outcome, not a fault.
type Verifier struct {
	cfg         VerifierConfig
	jwt         *JWTManager
	users       store.UserRepo
	pats        store.PatRepo
	cats        store.CatRepo
	collections store.CollectionRepo
	logger      *zap.Logger
	now         func() time.Time
}

// NewVerifier constructs a verifier. Construct once at boot and inject by
// reference; there is no hidden process-wide verifier state.
func NewVerifier(
	cfg VerifierConfig,
	jwtManager *JWTManager,
	users store.UserRepo,
	pats store.PatRepo,
	cats store.CatRepo,
	collections store.CollectionRepo,
	logger *zap.Logger,
) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		cfg:         cfg,
		jwt:         jwtManager,
		users:       users,
		pats:        pats,
		cats:        cats,
		collections: collections,
		logger:      logger,
		now:         time.Now,
	}
}

// Resolve classifies a raw bearer string and dispatches to the matching
// verifier. An empty string is never bearer-eligible.
func (v *Verifier) Resolve(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return nil, ErrMissingCredential
	}
	switch Classify(raw) {
	case CredentialJWT:
		return v.VerifyJWT(ctx, raw)
	case CredentialPAT:
		return v.VerifyPAT(ctx, raw)
	default:
		return v.VerifyCAT(ctx, raw)
	}
}

// VerifyJWT validates a signed access token and resolves its claims.
// Refresh tokens are rejected even when otherwise well-formed.
func (v *Verifier) VerifyJWT(_ context.Context, raw string) (Identity, error) {
	claims, err := v.jwt.VerifyAccess(raw)
	if err != nil {
		return nil, err
	}
	scopes := ParseScopes(claims.Scopes)
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	return JWTIdentity{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		Superuser: claims.Superuser,
		Scopes:    scopes,
	}, nil
}

// VerifyPAT validates a personal access token. The configured admin and
// static keys are checked first with constant-time compares and resolve to
// the synthetic privileged identity regardless of shape.
func (v *Verifier) VerifyPAT(ctx context.Context, raw string) (Identity, error) {
	if id, ok := v.matchStaticKey(raw); ok {
		return id, nil
	}

	hash := HashSecret(v.cfg.HashSalt, raw)
	token, err := v.pats.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if !token.IsActive {
		return nil, ErrRevokedCredential
	}
	if token.ExpiresAt != nil && !token.ExpiresAt.After(v.now()) {
		return nil, ErrExpiredCredential
	}

	owner, err := v.users.GetByID(ctx, token.OwnerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Orphaned token: the owning user is gone.
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if !owner.IsActive {
		return nil, ErrInvalidCredential
	}

	v.touchPAT(ctx, token.ID)

	return PATIdentity{
		TokenID:   token.ID,
		UserID:    owner.ID,
		Username:  owner.Username,
		Email:     owner.Email,
		Superuser: owner.IsSuperuser,
		Scopes:    ParseScopes(token.Scopes),
	}, nil
}

// VerifyCAT validates a collection access token. The admin and static keys
// resolve to AdminIdentity; ordinary keys must bind to a resolvable
// collection or they are invalid, not a crash.
func (v *Verifier) VerifyCAT(ctx context.Context, raw string) (Identity, error) {
	if id, ok := v.matchStaticKey(raw); ok {
		return id, nil
	}

	hash := HashSecret(v.cfg.HashSalt, raw)
	token, err := v.cats.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if !token.IsActive {
		return nil, ErrRevokedCredential
	}
	if token.ExpiresAt != nil && !token.ExpiresAt.After(v.now()) {
		return nil, ErrExpiredCredential
	}

	coll, err := v.collections.GetByID(ctx, token.CollectionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	v.touchCAT(ctx, token.ID)

	return CATIdentity{
		TokenID:        token.ID,
		OwnerID:        token.OwnerID,
		CollectionID:   coll.ID,
		CollectionName: coll.Name,
		Permission:     Permission(token.Permission),
	}, nil
}

// matchStaticKey compares raw against the configured admin and static keys.
func (v *Verifier) matchStaticKey(raw string) (Identity, bool) {
	if v.cfg.AdminKey != "" && constantTimeEqual(raw, v.cfg.AdminKey) {
		return AdminIdentity{Label: "admin-key"}, true
	}
	for _, key := range v.cfg.StaticKeys {
		if key != "" && constantTimeEqual(raw, key) {
			return AdminIdentity{Label: "static-key"}, true
		}
	}
	return nil, false
}

// touchPAT records last use. Failures are logged and swallowed: a missed
// timestamp must never turn a successful authorization into a failure.
func (v *Verifier) touchPAT(ctx context.Context, id string) {
	if err := v.pats.TouchLastUsed(ctx, id, v.now()); err != nil {
		v.logger.Warn("failed to record PAT last use",
			zap.String("token_id", id), zap.Error(err))
	}
}

func (v *Verifier) touchCAT(ctx context.Context, id string) {
	if err := v.cats.TouchLastUsed(ctx, id, v.now()); err != nil {
		v.logger.Warn("failed to record CAT last use",
			zap.String("token_id", id), zap.Error(err))
	}
}
