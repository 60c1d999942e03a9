package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claims. A refresh token must never authenticate a call even
// when otherwise well-formed; only access tokens resolve to an identity.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims memoryd issues and verifies.
type Claims struct {
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	Superuser bool     `json:"is_superuser,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
	TokenType string   `json:"type"`
	jwt.RegisteredClaims
}

// JWTConfig configures the JWT manager.
type JWTConfig struct {
	// Secret is the HS256 signing key.
	Secret []byte

	// Issuer is written into and required from the iss claim.
	Issuer string

	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration

	// RefreshTTL is the refresh token lifetime.
	RefreshTTL time.Duration
}

// TokenPair is an access/refresh token issuance result.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// JWTManager issues and verifies bearer tokens. It is stateless and safe
// for concurrent use; construct one at boot and inject it by reference.
type JWTManager struct {
	cfg JWTConfig
	now func() time.Time
}

// NewJWTManager creates a manager from config.
func NewJWTManager(cfg JWTConfig) (*JWTManager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: jwt secret is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "memoryd"
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 14 * 24 * time.Hour
	}
	return &JWTManager{cfg: cfg, now: time.Now}, nil
}

// Issue creates an access/refresh pair for a user.
func (m *JWTManager) Issue(userID, username, email string, superuser bool, scopes []Scope) (*TokenPair, error) {
	now := m.now()
	accessExp := now.Add(m.cfg.AccessTTL)

	access, err := m.sign(&Claims{
		Username:  username,
		Email:     email,
		Superuser: superuser,
		Scopes:    ScopeStrings(scopes),
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refresh, err := m.sign(&Claims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.RefreshTTL)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp}, nil
}

func (m *JWTManager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.cfg.Secret)
}

// VerifyAccess validates a token string and returns its claims iff it is a
// live access token. Refresh tokens are rejected here by design.
func (m *JWTManager) VerifyAccess(raw string) (*Claims, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// VerifyRefresh validates a token string and returns its claims iff it is a
// live refresh token. Used only by the refresh exchange.
func (m *JWTManager) VerifyRefresh(raw string) (*Claims, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

func (m *JWTManager) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return m.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
