package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/docsage/backend/internal/progress"
	"github.com/docsage/backend/pkg/ai"
	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/rag/extract"
)

type fakeAIClient struct {
	extraction string
	embedErr   error
}

func (f *fakeAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", nil
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption,
) error {
	return ai.UnmarshalFlexible(f.extraction, out)
}

func (f *fakeAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (f *fakeAIClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

// calls records cross-store operation order.
type calls struct {
	ops []string
}

type fakeVectorStore struct {
	calls        *calls
	indexed      []rag.Chunk
	indexedOwner string
	deleteErr    error
}

func (f *fakeVectorStore) IndexChunks(ctx context.Context, ownerID string, chunks []rag.Chunk, embeddings [][]float32) error {
	f.calls.ops = append(f.calls.ops, "vector.index")
	f.indexed = chunks
	f.indexedOwner = ownerID
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, ownerID string, embedding []float32, limit int, documentIDs []string) ([]rag.RetrievedChunk, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	f.calls.ops = append(f.calls.ops, "vector.delete")
	return f.deleteErr
}

type fakeGraphStore struct {
	calls       *calls
	savedDoc    rag.Document
	savedChunks []rag.Chunk
	extractions []rag.Extraction
	saveErr     error
}

func (f *fakeGraphStore) SaveDocument(ctx context.Context, doc rag.Document, chunks []rag.Chunk) error {
	f.calls.ops = append(f.calls.ops, "graph.save")
	f.savedDoc = doc
	f.savedChunks = chunks
	return f.saveErr
}

func (f *fakeGraphStore) SaveExtractions(ctx context.Context, chunks []rag.Chunk, extractions []rag.Extraction) error {
	f.calls.ops = append(f.calls.ops, "graph.extractions")
	f.extractions = extractions
	return nil
}

func (f *fakeGraphStore) LookupEntityChunks(ctx context.Context, ownerID string, names []string, limit int, documentIDs []string) ([]rag.RetrievedChunk, error) {
	return nil, nil
}

func (f *fakeGraphStore) ExpandChunk(ctx context.Context, chunkID string, maxHops, limit int) ([]rag.EntityRelation, error) {
	return nil, nil
}

func (f *fakeGraphStore) SiblingChunks(ctx context.Context, chunkID string, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakeGraphStore) GetDocument(ctx context.Context, documentID string) (rag.Document, error) {
	return rag.Document{}, nil
}

func (f *fakeGraphStore) ListDocuments(ctx context.Context, ownerID string) ([]rag.Document, error) {
	return nil, nil
}

func (f *fakeGraphStore) DeleteDocument(ctx context.Context, documentID string) error {
	f.calls.ops = append(f.calls.ops, "graph.delete")
	return nil
}

func newTestTracker(t *testing.T) *progress.Tracker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return progress.NewTracker(rdb)
}

const emptyExtraction = `{"entities": [], "relationships": []}`

func newTestOrchestrator(t *testing.T, client *fakeAIClient) (*Orchestrator, *fakeVectorStore, *fakeGraphStore, *progress.Tracker) {
	t.Helper()
	shared := &calls{}
	vectors := &fakeVectorStore{calls: shared}
	graph := &fakeGraphStore{calls: shared}
	tracker := newTestTracker(t)
	o := New(Params{
		Client:    client,
		Extractor: extract.New(extract.Params{Client: client}),
		Vectors:   vectors,
		Graph:     graph,
		Tracker:   tracker,
	})
	return o, vectors, graph, tracker
}

func TestIngestHappyPath(t *testing.T) {
	client := &fakeAIClient{extraction: `{
		"entities": [{"name": "Acme Inc.", "type": "organization"}],
		"relationships": []
	}`}
	o, vectors, graph, tracker := newTestOrchestrator(t, client)
	ctx := context.Background()

	doc := rag.Document{ID: "doc-1", OwnerID: "user-1", Filename: "notes.txt"}
	tracker.Create(ctx, doc.ID, doc.OwnerID, doc.Filename)

	text := strings.Repeat("Acme Inc. builds rockets in Nevada. ", 60)
	if err := o.Ingest(ctx, doc, text); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	record, err := tracker.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Status != progress.StatusCompleted || record.Progress != 100 {
		t.Errorf("expected completed at 100%%, got %+v", record)
	}

	if len(vectors.indexed) == 0 || len(graph.savedChunks) == 0 {
		t.Fatal("both stores should receive chunks")
	}
	if vectors.indexedOwner != "user-1" {
		t.Errorf("vector index owner = %q, want user-1", vectors.indexedOwner)
	}
	// same chunk IDs in both stores
	for i := range vectors.indexed {
		if vectors.indexed[i].ID != graph.savedChunks[i].ID {
			t.Fatalf("chunk ID mismatch between stores at %d", i)
		}
	}
	if len(graph.extractions) != len(graph.savedChunks) {
		t.Errorf("extractions not aligned with chunks: %d vs %d", len(graph.extractions), len(graph.savedChunks))
	}
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	client := &fakeAIClient{extraction: emptyExtraction}
	o, vectors, _, tracker := newTestOrchestrator(t, client)
	ctx := context.Background()

	doc := rag.Document{ID: "doc-1", OwnerID: "user-1", Filename: "empty.txt"}
	tracker.Create(ctx, doc.ID, doc.OwnerID, doc.Filename)

	err := o.Ingest(ctx, doc, "   \n\n  ")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}

	record, _ := tracker.Get(ctx, doc.ID)
	if record.Status != progress.StatusFailed {
		t.Errorf("expected failed status, got %q", record.Status)
	}
	if record.Error == "" {
		t.Error("failure should attach the error message")
	}
	if len(vectors.calls.ops) != 0 {
		t.Errorf("no store calls expected for empty document, got %v", vectors.calls.ops)
	}
}

func TestIngestEmbeddingFailureHaltsPipeline(t *testing.T) {
	client := &fakeAIClient{extraction: emptyExtraction, embedErr: errors.New("provider down")}
	o, vectors, _, tracker := newTestOrchestrator(t, client)
	ctx := context.Background()

	doc := rag.Document{ID: "doc-1", OwnerID: "user-1", Filename: "a.txt"}
	tracker.Create(ctx, doc.ID, doc.OwnerID, doc.Filename)

	if err := o.Ingest(ctx, doc, "some document text"); err == nil {
		t.Fatal("expected error from embedding failure")
	}

	record, _ := tracker.Get(ctx, doc.ID)
	if record.Status != progress.StatusFailed {
		t.Errorf("expected failed status, got %q", record.Status)
	}
	for _, op := range vectors.calls.ops {
		if op == "vector.index" || op == "graph.save" {
			t.Errorf("indexing should not run after embedding failure: %v", vectors.calls.ops)
		}
	}
}

func TestIngestProgressNeverRegresses(t *testing.T) {
	client := &fakeAIClient{extraction: emptyExtraction}
	o, _, _, tracker := newTestOrchestrator(t, client)
	ctx := context.Background()

	doc := rag.Document{ID: "doc-1", OwnerID: "user-1", Filename: "a.txt"}
	tracker.Create(ctx, doc.ID, doc.OwnerID, doc.Filename)

	text := strings.Repeat("Plain factual sentences without entities. ", 80)
	if err := o.Ingest(ctx, doc, text); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	record, _ := tracker.Get(ctx, doc.ID)
	if record.Progress != 100 || record.Status != progress.StatusCompleted {
		t.Errorf("expected completion, got %+v", record)
	}
	if record.Version <= 1 {
		t.Errorf("version should advance across stages, got %d", record.Version)
	}
}

func TestDeleteOrdering(t *testing.T) {
	client := &fakeAIClient{extraction: emptyExtraction}
	o, vectors, _, _ := newTestOrchestrator(t, client)

	if err := o.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := []string{"vector.delete", "graph.delete"}
	if len(vectors.calls.ops) != 2 || vectors.calls.ops[0] != want[0] || vectors.calls.ops[1] != want[1] {
		t.Errorf("delete order = %v, want %v", vectors.calls.ops, want)
	}
}

func TestDeleteStopsWhenVectorDeleteFails(t *testing.T) {
	client := &fakeAIClient{extraction: emptyExtraction}
	o, vectors, _, _ := newTestOrchestrator(t, client)
	vectors.deleteErr = errors.New("vector store down")

	if err := o.Delete(context.Background(), "doc-1"); err == nil {
		t.Fatal("expected error")
	}
	for _, op := range vectors.calls.ops {
		if op == "graph.delete" {
			t.Error("graph deletion should not run after vector deletion failure")
		}
	}
}
