// Package documents implements the document-memory operations: store,
// search, get and delete, always scoped to one collection and gated by the
// auth engine's permission resolver.
package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/store"
	"github.com/kestrelworks/memoryd/internal/vectorstore"
)

// ErrNotFound masks both missing documents and cross-tenant access: an
// unauthorized caller learns nothing about what exists.
var ErrNotFound = errors.New("documents: not found")

// Document is the service-level document representation.
type Document struct {
	ID           string            `json:"id"`
	CollectionID string            `json:"collection_id"`
	Content      string            `json:"content"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// SearchHit is one similarity result.
type SearchHit struct {
	Document
	Score float32 `json:"score"`
}

// Service stores and retrieves documents.
type Service struct {
	collections store.CollectionRepo
	vectors     vectorstore.Store
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a document service.
func NewService(collections store.CollectionRepo, vectors vectorstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{collections: collections, vectors: vectors, logger: logger, now: time.Now}
}

// resolveCollection decides which collection the current identity may
// operate on.
//
// A CAT is bound to exactly one collection: an empty requested id means
// the bound one, anything else is reported as not found. User-shaped
// identities must name a collection they own; privileged identities may
// name any.
func (s *Service) resolveCollection(ctx context.Context, requestedID string) (*store.Collection, error) {
	ident := auth.IdentityFrom(ctx)

	if cat, ok := ident.(auth.CATIdentity); ok {
		if requestedID != "" && requestedID != cat.CollectionID {
			return nil, ErrNotFound
		}
		coll, err := s.collections.GetByID(ctx, cat.CollectionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return coll, nil
	}

	if requestedID == "" {
		return nil, errors.New("documents: collection id is required")
	}
	coll, err := s.collections.GetByID(ctx, requestedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if auth.IsPrivileged(ident) {
		return coll, nil
	}
	subject, ok := auth.SubjectID(ident)
	if !ok || coll.OwnerID != subject {
		return nil, ErrNotFound
	}
	return coll, nil
}

// Store embeds and persists a document.
func (s *Service) Store(ctx context.Context, collectionID, content string, metadata map[string]string) (*Document, error) {
	if content == "" {
		return nil, errors.New("documents: content is required")
	}
	if !auth.HasWrite(auth.IdentityFrom(ctx)) {
		return nil, auth.ErrInsufficientPermission
	}
	coll, err := s.resolveCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	doc := vectorstore.Document{
		ID:       uuid.NewString(),
		Content:  content,
		Metadata: metadata,
	}
	if _, err := s.vectors.AddDocuments(ctx, coll.ID, []vectorstore.Document{doc}); err != nil {
		return nil, err
	}

	s.logger.Debug("stored document",
		zap.String("document_id", doc.ID), zap.String("collection_id", coll.ID))
	return &Document{
		ID:           doc.ID,
		CollectionID: coll.ID,
		Content:      content,
		Metadata:     metadata,
	}, nil
}

// Search runs similarity search within one collection.
func (s *Service) Search(ctx context.Context, collectionID, query string, limit int) ([]SearchHit, error) {
	if !auth.HasScope(auth.IdentityFrom(ctx), auth.ScopeRead) {
		return nil, auth.ErrInsufficientPermission
	}
	coll, err := s.resolveCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	results, err := s.vectors.Search(ctx, coll.ID, query, limit)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return []SearchHit{}, nil
		}
		return nil, err
	}

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		hits[i] = SearchHit{
			Document: Document{
				ID:           r.ID,
				CollectionID: coll.ID,
				Content:      r.Content,
				Metadata:     r.Metadata,
			},
			Score: r.Score,
		}
	}
	return hits, nil
}

// Get fetches one document by id.
func (s *Service) Get(ctx context.Context, collectionID, documentID string) (*Document, error) {
	if !auth.HasScope(auth.IdentityFrom(ctx), auth.ScopeRead) {
		return nil, auth.ErrInsufficientPermission
	}
	coll, err := s.resolveCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	doc, err := s.vectors.GetDocument(ctx, coll.ID, documentID)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) || errors.Is(err, vectorstore.ErrDocumentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Document{
		ID:           doc.ID,
		CollectionID: coll.ID,
		Content:      doc.Content,
		Metadata:     doc.Metadata,
	}, nil
}

// Delete removes one document.
func (s *Service) Delete(ctx context.Context, collectionID, documentID string) error {
	if !auth.HasWrite(auth.IdentityFrom(ctx)) {
		return auth.ErrInsufficientPermission
	}
	coll, err := s.resolveCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteDocuments(ctx, coll.ID, []string{documentID}); err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Debug("deleted document",
		zap.String("document_id", documentID), zap.String("collection_id", coll.ID))
	return nil
}
