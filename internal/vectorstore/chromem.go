package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("memoryd.vectorstore.chromem")

// ChromemConfig configures the embedded chromem-go database.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// ChromemStore implements Store with chromem-go, an embeddable pure-Go
// vector database persisted to disk. No external service is required.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
	logger   *zap.Logger
}

// NewChromemStore opens (or creates) the persistent database at the
// configured path.
func NewChromemStore(cfg ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	path, err := expandPath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}
	db, err := chromem.NewPersistentDB(path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem DB: %w", err)
	}
	return &ChromemStore{db: db, embedder: embedder, logger: logger}, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// EnsureCollection creates the collection when missing. Idempotent.
func (s *ChromemStore) EnsureCollection(_ context.Context, collection string) error {
	_, err := s.db.GetOrCreateCollection(collection, nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("ensuring collection %s: %w", collection, err)
	}
	return nil
}

// DeleteCollection removes a collection and all its documents.
func (s *ChromemStore) DeleteCollection(_ context.Context, collection string) error {
	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("deleting collection %s: %w", collection, err)
	}
	return nil
}

// AddDocuments embeds and stores a batch of documents in one collection.
func (s *ChromemStore) AddDocuments(ctx context.Context, collection string, docs []Document) ([]string, error) {
	ctx, span := tracer.Start(ctx, "ChromemStore.AddDocuments")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("document_count", len(docs)),
	)

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}

	coll, err := s.db.GetOrCreateCollection(collection, nil, s.embeddingFunc())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ensuring collection %s: %w", collection, err)
	}

	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
		ids[i] = doc.ID
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: embeddings[i],
		}
	}

	// Concurrency of 1: embeddings are already computed above.
	if err := coll.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Debug("added documents",
		zap.String("collection", collection), zap.Int("count", len(docs)))
	return ids, nil
}

// Search performs similarity search in one collection.
func (s *ChromemStore) Search(ctx context.Context, collection, query string, k int) ([]SearchResult, error) {
	ctx, span := tracer.Start(ctx, "ChromemStore.Search")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.Int("k", k))

	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	coll := s.db.GetCollection(collection, s.embeddingFunc())
	if coll == nil {
		return nil, ErrCollectionNotFound
	}

	// chromem requires nResults <= document count.
	count := coll.Count()
	if count == 0 {
		return []SearchResult{}, nil
	}
	if k > count {
		k = count
	}

	results, err := coll.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata},
			Score:    r.Similarity,
		}
	}
	return out, nil
}

// GetDocument fetches one document by id.
func (s *ChromemStore) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	coll := s.db.GetCollection(collection, s.embeddingFunc())
	if coll == nil {
		return nil, ErrCollectionNotFound
	}
	doc, err := coll.GetByID(ctx, id)
	if err != nil {
		// chromem only errors here when the id is absent.
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return &Document{ID: doc.ID, Content: doc.Content, Metadata: doc.Metadata}, nil
}

// DeleteDocuments removes documents by id.
func (s *ChromemStore) DeleteDocuments(ctx context.Context, collection string, ids []string) error {
	coll := s.db.GetCollection(collection, s.embeddingFunc())
	if coll == nil {
		return ErrCollectionNotFound
	}
	if err := coll.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// Count returns the number of documents in a collection.
func (s *ChromemStore) Count(_ context.Context, collection string) (int, error) {
	coll := s.db.GetCollection(collection, s.embeddingFunc())
	if coll == nil {
		return 0, ErrCollectionNotFound
	}
	return coll.Count(), nil
}

var _ Store = (*ChromemStore)(nil)
