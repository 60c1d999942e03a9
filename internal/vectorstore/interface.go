// Package vectorstore defines the narrow vector-storage contract memoryd's
// document service depends on, plus the embedded chromem-go implementation.
//
// Similarity-search mechanics and embedding generation are collaborator
// concerns: the document service treats this package as an opaque store
// keyed by collection.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("vectorstore: collection not found")

	// ErrDocumentNotFound is returned when a document id does not exist in
	// an existing collection.
	ErrDocumentNotFound = errors.New("vectorstore: document not found")

	// ErrEmptyDocuments indicates an empty or nil document batch.
	ErrEmptyDocuments = errors.New("vectorstore: empty documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("vectorstore: embedding failed")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("vectorstore: invalid configuration")
)

// Document is a unit of stored content.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// SearchResult is one similarity hit.
type SearchResult struct {
	Document
	Score float32
}

// Embedder generates vector embeddings from text. Implementations may call
// a local TEI server or a cloud API.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the vector storage contract. Collections here are keyed by the
// memoryd collection id; ownership checks happen above this layer.
type Store interface {
	EnsureCollection(ctx context.Context, collection string) error
	DeleteCollection(ctx context.Context, collection string) error
	AddDocuments(ctx context.Context, collection string, docs []Document) ([]string, error)
	Search(ctx context.Context, collection, query string, k int) ([]SearchResult, error)
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	DeleteDocuments(ctx context.Context, collection string, ids []string) error
	Count(ctx context.Context, collection string) (int, error)
}
