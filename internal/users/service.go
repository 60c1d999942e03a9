// Package users implements account management: registration, login,
// refresh exchange, profile, and the admin user operations.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/store"
)

var (
	// ErrInvalidLogin is returned for a wrong username/password pair. The
	// same error covers unknown users so probing cannot distinguish them.
	ErrInvalidLogin = errors.New("users: invalid username or password")

	// ErrLastSuperuser is returned when an operation would leave the
	// system without an active superuser.
	ErrLastSuperuser = errors.New("users: cannot remove the last superuser")
)

// Service manages user accounts.
type Service struct {
	users  store.UserRepo
	jwt    *auth.JWTManager
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a user service.
func NewService(users store.UserRepo, jwtManager *auth.JWTManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, jwt: jwtManager, logger: logger, now: time.Now}
}

// Register creates a new active account. The very first account becomes a
// superuser so a fresh deployment can bootstrap itself without the admin
// key.
func (s *Service) Register(ctx context.Context, username, email, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, errors.New("users: username and email are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	superusers, err := s.users.CountSuperusers(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting superusers: %w", err)
	}

	u := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superusers == 0,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("registered user",
		zap.String("user_id", u.ID),
		zap.Bool("superuser", u.IsSuperuser))
	return u, nil
}

// Login verifies credentials and issues an access/refresh pair.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*auth.TokenPair, *store.User, error) {
	u, err := s.users.GetByUsername(ctx, usernameOrEmail)
	if errors.Is(err, store.ErrNotFound) {
		u, err = s.users.GetByEmail(ctx, usernameOrEmail)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidLogin
		}
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, ErrInvalidLogin
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidLogin
	}

	pair, err := s.jwt.Issue(u.ID, u.Username, u.Email, u.IsSuperuser, s.scopesFor(u))
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

// scopesFor returns the scope set written into a user's tokens. Admin is
// never stored redundantly: superuser status rides the is_superuser claim
// and bypasses scope checks.
func (s *Service) scopesFor(_ *store.User) []auth.Scope {
	return auth.DefaultScopes()
}

// Refresh exchanges a live refresh token for a new pair. The user must
// still exist and be active at exchange time.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwt.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrInvalidCredential
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, auth.ErrInvalidCredential
	}
	return s.jwt.Issue(u.ID, u.Username, u.Email, u.IsSuperuser, s.scopesFor(u))
}

// Profile returns the account of the current identity.
func (s *Service) Profile(ctx context.Context) (*store.User, error) {
	subject, ok := auth.SubjectID(auth.IdentityFrom(ctx))
	if !ok {
		return nil, auth.ErrInsufficientPermission
	}
	return s.users.GetByID(ctx, subject)
}

// UpdateParams is a partial update for the admin user-update operation.
// Nil fields are untouched.
type UpdateParams struct {
	Email       *string
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
}

// Update applies an admin update to a user. Demoting or deactivating the
// last active superuser is refused.
func (s *Service) Update(ctx context.Context, targetID string, params UpdateParams) (*store.User, error) {
	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	losesPrivilege := u.IsSuperuser && u.IsActive &&
		((params.IsSuperuser != nil && !*params.IsSuperuser) ||
			(params.IsActive != nil && !*params.IsActive))
	if losesPrivilege {
		n, err := s.users.CountSuperusers(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting superusers: %w", err)
		}
		if n <= 1 {
			return nil, ErrLastSuperuser
		}
	}

	if params.Email != nil {
		u.Email = strings.TrimSpace(*params.Email)
	}
	if params.Password != nil {
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if params.IsActive != nil {
		u.IsActive = *params.IsActive
	}
	if params.IsSuperuser != nil {
		u.IsSuperuser = *params.IsSuperuser
	}
	u.UpdatedAt = s.now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("updated user", zap.String("user_id", u.ID))
	return u, nil
}

// Delete removes a user account. An identity may never delete its own
// account: the subject-id equality check runs before and independently of
// the admin gate that authorized the operation. The last active superuser
// cannot be deleted either.
func (s *Service) Delete(ctx context.Context, targetID string) error {
	if subject, ok := auth.SubjectID(auth.IdentityFrom(ctx)); ok && subject == targetID {
		return auth.ErrSelfProtection
	}

	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if u.IsSuperuser && u.IsActive {
		n, err := s.users.CountSuperusers(ctx)
		if err != nil {
			return fmt.Errorf("counting superusers: %w", err)
		}
		if n <= 1 {
			return ErrLastSuperuser
		}
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}
	s.logger.Info("deleted user", zap.String("user_id", targetID))
	return nil
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]*store.User, error) {
	return s.users.List(ctx)
}

// Search returns users matching a username/email substring.
func (s *Service) Search(ctx context.Context, query string) ([]*store.User, error) {
	return s.users.Search(ctx, query)
}
