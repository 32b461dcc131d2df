package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/docsage/backend/internal/progress"
	"github.com/docsage/backend/pkg/ai"
	"github.com/docsage/backend/pkg/ingest"
	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/rag/extract"
)

type nullAIClient struct{}

func (nullAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (nullAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return nil
}

func (nullAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return make([]float32, 4), nil
}

func (nullAIClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = make([]float32, 4)
	}
	return out, nil
}

type nullVectorStore struct{}

func (nullVectorStore) IndexChunks(ctx context.Context, ownerID string, chunks []rag.Chunk, embeddings [][]float32) error {
	return nil
}

func (nullVectorStore) Search(ctx context.Context, ownerID string, embedding []float32, limit int, documentIDs []string) ([]rag.RetrievedChunk, error) {
	return nil, nil
}

func (nullVectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	return nil
}

type nullGraphStore struct{}

func (nullGraphStore) SaveDocument(ctx context.Context, doc rag.Document, chunks []rag.Chunk) error {
	return nil
}

func (nullGraphStore) SaveExtractions(ctx context.Context, chunks []rag.Chunk, extractions []rag.Extraction) error {
	return nil
}

func (nullGraphStore) LookupEntityChunks(ctx context.Context, ownerID string, names []string, limit int, documentIDs []string) ([]rag.RetrievedChunk, error) {
	return nil, nil
}

func (nullGraphStore) ExpandChunk(ctx context.Context, chunkID string, maxHops, limit int) ([]rag.EntityRelation, error) {
	return nil, nil
}

func (nullGraphStore) SiblingChunks(ctx context.Context, chunkID string, limit int) ([]string, error) {
	return nil, nil
}

func (nullGraphStore) GetDocument(ctx context.Context, documentID string) (rag.Document, error) {
	return rag.Document{}, nil
}

func (nullGraphStore) ListDocuments(ctx context.Context, ownerID string) ([]rag.Document, error) {
	return nil, nil
}

func (nullGraphStore) DeleteDocument(ctx context.Context, documentID string) error {
	return nil
}

func TestEmptyDocumentFailureIsNotRequeued(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	tracker := progress.NewTracker(rdb)
	ctx := context.Background()
	tracker.Create(ctx, "doc-1", "user-1", "empty.txt")

	orch := ingest.New(ingest.Params{
		Client:    nullAIClient{},
		Extractor: extract.New(extract.Params{Client: nullAIClient{}}),
		Vectors:   nullVectorStore{},
		Graph:     nullGraphStore{},
		Tracker:   tracker,
	})

	err := orch.Ingest(ctx, rag.Document{ID: "doc-1", OwnerID: "user-1", Filename: "empty.txt"}, "   \n\n  ")
	if !errors.Is(err, ingest.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if retryable(err) {
		t.Error("an empty document can never ingest; redelivering it is pointless")
	}

	record, err := tracker.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Status != progress.StatusFailed {
		t.Errorf("tracker should hold the terminal failure: %+v", record)
	}
}

func TestRetryableClassification(t *testing.T) {
	if retryable(ingest.ErrEmptyDocument) {
		t.Error("empty document failures are terminal")
	}
	if retryable(fmt.Errorf("processing doc-1: %w", ingest.ErrEmptyDocument)) {
		t.Error("wrapping must not make a terminal failure retryable")
	}
	if !retryable(errors.New("connection reset")) {
		t.Error("transient failures should be redelivered")
	}
}
