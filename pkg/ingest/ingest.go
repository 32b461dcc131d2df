// Package ingest sequences the document processing pipeline: chunking,
// embedding, dual-store indexing, and entity extraction, with progress
// reported after every stage.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/docsage/backend/internal/progress"
	"github.com/docsage/backend/pkg/ai"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/rag/chunker"
	"github.com/docsage/backend/pkg/rag/extract"
	"github.com/docsage/backend/pkg/store"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrEmptyDocument marks a document whose text produced no chunks.
var ErrEmptyDocument = errors.New("document appears to be empty")

// Orchestrator runs the ingestion pipeline for one document at a time.
//
// An Orchestrator should be created using New.
type Orchestrator struct {
	client    ai.Client
	chunker   *chunker.Chunker
	extractor *extract.Extractor
	vectors   store.VectorStore
	graph     store.GraphStore
	tracker   *progress.Tracker
}

// Params configures an Orchestrator.
type Params struct {
	Client    ai.Client
	Chunker   *chunker.Chunker
	Extractor *extract.Extractor
	Vectors   store.VectorStore
	Graph     store.GraphStore
	Tracker   *progress.Tracker
}

// New creates an Orchestrator from the given parameters.
func New(params Params) *Orchestrator {
	c := params.Chunker
	if c == nil {
		c = chunker.New(chunker.Params{})
	}
	return &Orchestrator{
		client:    params.Client,
		chunker:   c,
		extractor: params.Extractor,
		vectors:   params.Vectors,
		graph:     params.Graph,
		tracker:   params.Tracker,
	}
}

// Ingest processes a document's text through the full pipeline. A failure
// at any stage marks the document failed and stops, without rolling back
// work already committed to either store. The same chunk IDs land in the
// vector index and the graph, so retrieval results from both paths refer
// to the same spans.
func (o *Orchestrator) Ingest(ctx context.Context, doc rag.Document, text string) error {
	chunks, err := o.chunk(ctx, doc, text)
	if err != nil {
		return err
	}

	embeddings, err := o.embed(ctx, doc, chunks)
	if err != nil {
		return err
	}

	if err := o.index(ctx, doc, chunks, embeddings); err != nil {
		return err
	}

	if err := o.extractEntities(ctx, doc, chunks); err != nil {
		return err
	}

	if _, err := o.tracker.Complete(ctx, doc.ID, ""); err != nil {
		return err
	}
	logger.Info("document ingested", "document", doc.ID, "chunks", len(chunks))
	return nil
}

func (o *Orchestrator) chunk(ctx context.Context, doc rag.Document, text string) ([]rag.Chunk, error) {
	if _, err := o.tracker.Update(ctx, doc.ID, progress.StatusChunking, "Splitting document into chunks"); err != nil {
		return nil, err
	}

	parts := o.chunker.Split(text)
	if len(parts) == 0 {
		return nil, o.fail(ctx, doc, ErrEmptyDocument)
	}

	chunks := make([]rag.Chunk, len(parts))
	for i, part := range parts {
		id, err := gonanoid.New()
		if err != nil {
			return nil, o.fail(ctx, doc, err)
		}
		chunks[i] = rag.Chunk{
			ID:         id,
			DocumentID: doc.ID,
			Position:   i,
			Text:       part,
		}
	}
	return chunks, nil
}

func (o *Orchestrator) embed(ctx context.Context, doc rag.Document, chunks []rag.Chunk) ([][]float32, error) {
	if _, err := o.tracker.Update(ctx, doc.ID, progress.StatusEmbedding,
		fmt.Sprintf("Embedding %d chunks", len(chunks))); err != nil {
		return nil, err
	}

	inputs := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		inputs[i] = []byte(chunk.Text)
	}
	embeddings, err := o.client.GenerateEmbeddings(ctx, inputs)
	if err != nil {
		return nil, o.fail(ctx, doc, fmt.Errorf("embedding failed: %w", err))
	}
	return embeddings, nil
}

func (o *Orchestrator) index(ctx context.Context, doc rag.Document, chunks []rag.Chunk, embeddings [][]float32) error {
	if _, err := o.tracker.Update(ctx, doc.ID, progress.StatusIndexing, "Indexing chunks"); err != nil {
		return err
	}

	if err := o.graph.SaveDocument(ctx, doc, chunks); err != nil {
		return o.fail(ctx, doc, fmt.Errorf("saving document failed: %w", err))
	}
	if err := o.vectors.IndexChunks(ctx, doc.OwnerID, chunks, embeddings); err != nil {
		return o.fail(ctx, doc, fmt.Errorf("vector indexing failed: %w", err))
	}
	return nil
}

func (o *Orchestrator) extractEntities(ctx context.Context, doc rag.Document, chunks []rag.Chunk) error {
	if _, err := o.tracker.Update(ctx, doc.ID, progress.StatusExtractingEntities, "Extracting entities"); err != nil {
		return err
	}

	extractions, err := o.extractor.ExtractBatch(ctx, chunks, func(done, total int) {
		pct := 85 + done*14/total
		o.tracker.UpdateProgress(ctx, doc.ID, progress.StatusExtractingEntities,
			fmt.Sprintf("Extracting entities: %d/%d chunks", done, total), pct)
	})
	if err != nil {
		return o.fail(ctx, doc, fmt.Errorf("entity extraction failed: %w", err))
	}

	if err := o.graph.SaveExtractions(ctx, chunks, extractions); err != nil {
		return o.fail(ctx, doc, fmt.Errorf("saving extractions failed: %w", err))
	}
	return nil
}

// Delete removes a document from both stores, vector index first. If the
// graph deletion fails the vectors are already gone, which leaves the
// graph authoritative for what exists.
func (o *Orchestrator) Delete(ctx context.Context, documentID string) error {
	if err := o.vectors.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting vectors failed: %w", err)
	}
	if err := o.graph.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting graph state failed: %w", err)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, doc rag.Document, cause error) error {
	logger.Error("ingestion failed", "document", doc.ID, "err", cause)
	if _, err := o.tracker.Fail(ctx, doc.ID, cause.Error()); err != nil {
		logger.Error("recording failure state failed", "document", doc.ID, "err", err)
	}
	return cause
}
