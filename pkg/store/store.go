// Package store defines the persistence interfaces the ingestion and
// retrieval pipelines depend on. The pgx subpackage implements both on
// PostgreSQL, using pgvector for similarity search.
package store

import (
	"context"

	"github.com/docsage/backend/pkg/rag"
)

// VectorStore indexes chunk embeddings and serves similarity queries.
// All reads are scoped to an owner; the shared owner is always included.
type VectorStore interface {
	// IndexChunks stores chunks with their embeddings. Chunks and
	// embeddings are aligned by index.
	IndexChunks(ctx context.Context, ownerID string, chunks []rag.Chunk, embeddings [][]float32) error

	// Search returns up to limit chunks ordered by cosine similarity to
	// the query embedding, visible to ownerID. A non-empty documentIDs
	// restricts results to those documents.
	Search(ctx context.Context, ownerID string, embedding []float32, limit int, documentIDs []string) ([]rag.RetrievedChunk, error)

	// DeleteDocument removes all indexed chunks of a document.
	DeleteDocument(ctx context.Context, documentID string) error
}

// GraphStore persists documents, chunks, and the knowledge graph built
// from them, and serves the graph-side retrieval queries.
type GraphStore interface {
	// SaveDocument persists the document record and its chunks.
	SaveDocument(ctx context.Context, doc rag.Document, chunks []rag.Chunk) error

	// SaveExtractions merges per-chunk extraction results into the graph.
	// Chunks and extractions are aligned by index. Entities merge on
	// (normalized name, type) across all documents.
	SaveExtractions(ctx context.Context, chunks []rag.Chunk, extractions []rag.Extraction) error

	// LookupEntityChunks returns chunks visible to ownerID where any of
	// the given normalized entity names appears. A non-empty documentIDs
	// restricts results to those documents.
	LookupEntityChunks(ctx context.Context, ownerID string, normalizedNames []string, limit int, documentIDs []string) ([]rag.RetrievedChunk, error)

	// ExpandChunk walks entity relationships from the chunk's entities up
	// to maxHops edges and returns tuples pointing at other chunks where
	// reached entities appear, capped at limit.
	ExpandChunk(ctx context.Context, chunkID string, maxHops, limit int) ([]rag.EntityRelation, error)

	// SiblingChunks returns IDs of other chunks in the same document,
	// ordered by position, capped at limit.
	SiblingChunks(ctx context.Context, chunkID string, limit int) ([]string, error)

	GetDocument(ctx context.Context, documentID string) (rag.Document, error)
	ListDocuments(ctx context.Context, ownerID string) ([]rag.Document, error)

	// DeleteDocument removes the document, its chunks, and all graph
	// state that only this document supported: entity mentions go with
	// the chunks, and entities left without any mention are removed.
	DeleteDocument(ctx context.Context, documentID string) error
}

// OwnerFilter returns the set of owners visible to ownerID: the owner
// itself plus the shared sentinel.
func OwnerFilter(ownerID string) []string {
	if ownerID == rag.OwnerShared {
		return []string{rag.OwnerShared}
	}
	return []string{ownerID, rag.OwnerShared}
}
