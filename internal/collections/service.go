// Package collections manages the owned namespaces documents live in.
package collections

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/store"
	"github.com/kestrelworks/memoryd/internal/vectorstore"
)

// ErrHasActiveTokens is returned when deleting a collection that still has
// active access tokens bound to it. Deletion refuses rather than cascading
// so a live token can never silently point at nothing.
var ErrHasActiveTokens = errors.New("collections: collection has active access tokens")

// Service manages collections and their vector-store backing.
type Service struct {
	collections store.CollectionRepo
	cats        store.CatRepo
	vectors     vectorstore.Store
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a collection service.
func NewService(collections store.CollectionRepo, cats store.CatRepo, vectors vectorstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		collections: collections,
		cats:        cats,
		vectors:     vectors,
		logger:      logger,
		now:         time.Now,
	}
}

// resolveOwned fetches a collection the current identity may manage.
// Ownership violations surface as not-found so existence is never
// confirmed to another tenant.
func (s *Service) resolveOwned(ctx context.Context, id string) (*store.Collection, error) {
	coll, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ident := auth.IdentityFrom(ctx)
	if auth.IsPrivileged(ident) {
		return coll, nil
	}
	subject, ok := auth.SubjectID(ident)
	if !ok || coll.OwnerID != subject {
		return nil, store.ErrNotFound
	}
	return coll, nil
}

// Create makes a new collection owned by the current identity and ensures
// its vector-store backing exists.
func (s *Service) Create(ctx context.Context, name string) (*store.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("collections: name is required")
	}
	subject, ok := auth.SubjectID(auth.IdentityFrom(ctx))
	if !ok {
		return nil, auth.ErrInsufficientPermission
	}

	coll := &store.Collection{
		ID:        uuid.NewString(),
		OwnerID:   subject,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.collections.Create(ctx, coll); err != nil {
		return nil, err
	}
	if err := s.vectors.EnsureCollection(ctx, coll.ID); err != nil {
		// Roll back the record so the two stores stay consistent.
		if delErr := s.collections.Delete(ctx, coll.ID); delErr != nil {
			s.logger.Error("failed to roll back collection record",
				zap.String("collection_id", coll.ID), zap.Error(delErr))
		}
		return nil, err
	}
	s.logger.Info("created collection",
		zap.String("collection_id", coll.ID), zap.String("owner_id", subject))
	return coll, nil
}

// List returns the current identity's collections; privileged callers with
// no user subject get nothing here (the admin key manages users, not data).
func (s *Service) List(ctx context.Context) ([]*store.Collection, error) {
	subject, ok := auth.SubjectID(auth.IdentityFrom(ctx))
	if !ok {
		return []*store.Collection{}, nil
	}
	return s.collections.ListByOwner(ctx, subject)
}

// Rename changes a collection's display name.
func (s *Service) Rename(ctx context.Context, id, name string) (*store.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("collections: name is required")
	}
	if _, err := s.resolveOwned(ctx, id); err != nil {
		return nil, err
	}
	if err := s.collections.Rename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.collections.GetByID(ctx, id)
}

// Delete removes a collection and its documents. It refuses while active
// access tokens are bound to the collection; revoke them first.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.resolveOwned(ctx, id); err != nil {
		return err
	}

	tokens, err := s.cats.ListByCollection(ctx, id)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		if t.IsActive {
			return ErrHasActiveTokens
		}
	}

	if err := s.collections.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.vectors.DeleteCollection(ctx, id); err != nil {
		// The record is gone; the orphaned vector data is logged, not
		// surfaced, since the caller's delete already committed.
		s.logger.Error("failed to delete vector collection",
			zap.String("collection_id", id), zap.Error(err))
	}
	s.logger.Info("deleted collection", zap.String("collection_id", id))
	return nil
}

// Get fetches one collection the current identity may see.
func (s *Service) Get(ctx context.Context, id string) (*store.Collection, error) {
	return s.resolveOwned(ctx, id)
}
