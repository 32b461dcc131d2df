// Package retrieve implements hybrid retrieval: vector similarity and
// graph entity lookup run in parallel, results merge into a single ranked
// list, and top chunks pick up multi-hop graph context.
package retrieve

import (
	"context"

	"github.com/docsage/backend/pkg/ai"
	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"
	"github.com/docsage/backend/pkg/rag/extract"
	"github.com/docsage/backend/pkg/store"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxResults = 5

	// Expansion bounds. Hops limits the relationship walk, ExpandCap the
	// tuples attached per chunk, SiblingCap the fallback sibling list.
	DefaultMaxHops    = 2
	DefaultExpandCap  = 10
	DefaultSiblingCap = 5
)

// Retriever answers queries against the vector index and the knowledge
// graph.
//
// A Retriever should be created using New.
type Retriever struct {
	client    ai.Client
	extractor *extract.Extractor
	vectors   store.VectorStore
	graph     store.GraphStore

	maxHops    int
	expandCap  int
	siblingCap int
}

// Params configures a Retriever. Zero bounds fall back to the defaults.
type Params struct {
	Client    ai.Client
	Extractor *extract.Extractor
	Vectors   store.VectorStore
	Graph     store.GraphStore

	MaxHops    int
	ExpandCap  int
	SiblingCap int
}

// New creates a Retriever from the given parameters.
func New(params Params) *Retriever {
	r := &Retriever{
		client:     params.Client,
		extractor:  params.Extractor,
		vectors:    params.Vectors,
		graph:      params.Graph,
		maxHops:    params.MaxHops,
		expandCap:  params.ExpandCap,
		siblingCap: params.SiblingCap,
	}
	if r.maxHops <= 0 {
		r.maxHops = DefaultMaxHops
	}
	if r.expandCap <= 0 {
		r.expandCap = DefaultExpandCap
	}
	if r.siblingCap <= 0 {
		r.siblingCap = DefaultSiblingCap
	}
	return r
}

// Request is one retrieval query. MaxResults of zero means the default;
// a non-empty DocumentIDs restricts both retrieval paths to those
// documents.
type Request struct {
	OwnerID     string
	Query       string
	MaxResults  int
	Expand      bool
	DocumentIDs []string
}

// Retrieve runs the hybrid retrieval pipeline for a query. Both paths run
// concurrently; the graph path degrades to empty on failure so retrieval
// still answers from vector similarity alone. When Expand is set each
// returned chunk carries multi-hop graph context.
func (r *Retriever) Retrieve(ctx context.Context, req Request) ([]rag.RetrievedChunk, error) {
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	embedding, err := r.client.GenerateEmbedding(ctx, []byte(req.Query))
	if err != nil {
		return nil, err
	}

	var vectorChunks, graphChunks []rag.RetrievedChunk
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		chunks, err := r.vectors.Search(ectx, req.OwnerID, embedding, maxResults, req.DocumentIDs)
		if err != nil {
			return err
		}
		vectorChunks = chunks
		return nil
	})
	eg.Go(func() error {
		graphChunks = r.entityLookup(ectx, req, maxResults)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := mergeAndRerank(vectorChunks, graphChunks, maxResults)

	if req.Expand {
		for i := range merged {
			r.expandChunk(ctx, &merged[i])
		}
	}

	return merged, nil
}

// entityLookup extracts entities from the query and looks their chunks up
// in the graph. Any failure degrades to no graph results.
func (r *Retriever) entityLookup(
	ctx context.Context,
	req Request,
	limit int,
) []rag.RetrievedChunk {
	extraction := r.extractor.ExtractChunk(ctx, req.Query)
	if len(extraction.Entities) == 0 {
		return nil
	}

	names := make([]string, 0, len(extraction.Entities))
	for _, e := range extraction.Entities {
		names = append(names, e.NormalizedName)
	}

	chunks, err := r.graph.LookupEntityChunks(ctx, req.OwnerID, names, limit, req.DocumentIDs)
	if err != nil {
		logger.Warn("graph entity lookup failed, continuing with vector results", "err", err)
		return nil
	}
	if len(chunks) > 0 {
		logger.Info("graph entity lookup matched chunks", "entities", names, "chunks", len(chunks))
	}
	return chunks
}

// expandChunk attaches multi-hop graph context to one retrieved chunk,
// falling back to sibling chunks when its entities reach nothing. The
// caps hold here even if a store hands back more rows than asked for.
func (r *Retriever) expandChunk(ctx context.Context, chunk *rag.RetrievedChunk) {
	relations, err := r.graph.ExpandChunk(ctx, chunk.ChunkID, r.maxHops, r.expandCap)
	if err != nil {
		logger.Warn("graph expansion failed for chunk", "chunk", chunk.ChunkID, "err", err)
		return
	}
	if len(relations) > r.expandCap {
		relations = relations[:r.expandCap]
	}
	if len(relations) > 0 {
		chunk.EntityRelations = relations
		return
	}

	siblings, err := r.graph.SiblingChunks(ctx, chunk.ChunkID, r.siblingCap)
	if err != nil {
		logger.Warn("sibling lookup failed for chunk", "chunk", chunk.ChunkID, "err", err)
		return
	}
	if len(siblings) > r.siblingCap {
		siblings = siblings[:r.siblingCap]
	}
	chunk.RelatedChunks = siblings
}
