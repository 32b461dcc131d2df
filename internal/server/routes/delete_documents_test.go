package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/docsage/backend/internal/server/middleware"
	"github.com/docsage/backend/pkg/rag"
)

type fakeGraphStore struct {
	doc rag.Document
	err error
}

func (f *fakeGraphStore) SaveDocument(ctx context.Context, doc rag.Document, chunks []rag.Chunk) error {
	return nil
}

func (f *fakeGraphStore) SaveExtractions(ctx context.Context, chunks []rag.Chunk, extractions []rag.Extraction) error {
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
	return f.doc, f.err
}

func (f *fakeGraphStore) ListDocuments(ctx context.Context, ownerID string) ([]rag.Document, error) {
	return nil, nil
}

func (f *fakeGraphStore) DeleteDocument(ctx context.Context, documentID string) error {
	return nil
}

func newDeleteRequest(graph *fakeGraphStore, owner string) (*middleware.AppContext, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/documents/:id")
	c.SetParamNames("id")
	c.SetParamValues("doc-1")
	return &middleware.AppContext{
		Context: c,
		App:     &middleware.App{Graph: graph},
		OwnerID: owner,
	}, rec
}

func TestDeleteDocumentOtherTenantLooksMissing(t *testing.T) {
	graph := &fakeGraphStore{doc: rag.Document{ID: "doc-1", OwnerID: "user-2"}}
	c, rec := newDeleteRequest(graph, "user-1")

	if err := DeleteDocumentHandler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Document not found") {
		t.Errorf("body should not reveal the document exists: %s", rec.Body.String())
	}
}

func TestDeleteDocumentMissing(t *testing.T) {
	graph := &fakeGraphStore{err: pgx.ErrNoRows}
	c, rec := newDeleteRequest(graph, "user-1")

	if err := DeleteDocumentHandler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteDocumentSharedForbidden(t *testing.T) {
	graph := &fakeGraphStore{doc: rag.Document{ID: "doc-1", OwnerID: rag.OwnerShared}}
	c, rec := newDeleteRequest(graph, "user-1")

	if err := DeleteDocumentHandler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
