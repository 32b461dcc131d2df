package retrieve

import (
	"math"
	"testing"

	"github.com/docsage/backend/pkg/rag"
)

func TestMergeVectorOnlyKeepsScores(t *testing.T) {
	vector := []rag.RetrievedChunk{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.4},
	}
	got := mergeAndRerank(vector, nil, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].Score != 0.9 || got[1].Score != 0.4 {
		t.Errorf("vector scores should be untouched: %+v", got)
	}
	for _, c := range got {
		if c.Method != rag.MethodVector {
			t.Errorf("chunk %s method = %q, want vector", c.ChunkID, c.Method)
		}
	}
}

func TestMergeGraphOnlyGetsBaseScore(t *testing.T) {
	graph := []rag.RetrievedChunk{
		{ChunkID: "g", MatchedEntity: "Acme"},
	}
	got := mergeAndRerank(nil, graph, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0].Score != GraphBaseScore {
		t.Errorf("graph-only score = %v, want %v", got[0].Score, GraphBaseScore)
	}
	if got[0].Method != rag.MethodGraph {
		t.Errorf("method = %q, want graph", got[0].Method)
	}
}

func TestMergeBothPathsBoostsAndClamps(t *testing.T) {
	tests := []struct {
		name        string
		vectorScore float64
		want        float64
	}{
		{"boosted", 0.5, 0.6},
		{"clamped at one", 0.9, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vector := []rag.RetrievedChunk{{ChunkID: "x", Score: tt.vectorScore}}
			graph := []rag.RetrievedChunk{{ChunkID: "x", MatchedEntity: "Acme", MatchedType: rag.EntityOrganization}}
			got := mergeAndRerank(vector, graph, 5)
			if len(got) != 1 {
				t.Fatalf("expected 1 merged chunk, got %d", len(got))
			}
			if math.Abs(got[0].Score-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", got[0].Score, tt.want)
			}
			if got[0].Method != rag.MethodHybrid {
				t.Errorf("method = %q, want hybrid", got[0].Method)
			}
			if got[0].MatchedEntity != "Acme" {
				t.Errorf("matched entity not carried over: %+v", got[0])
			}
		})
	}
}

func TestMergeOrdersByScoreAndCaps(t *testing.T) {
	vector := []rag.RetrievedChunk{
		{ChunkID: "low", Score: 0.2},
		{ChunkID: "high", Score: 0.95},
	}
	graph := []rag.RetrievedChunk{
		{ChunkID: "graphonly"},
	}
	got := mergeAndRerank(vector, graph, 2)
	if len(got) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(got))
	}
	if got[0].ChunkID != "high" || got[1].ChunkID != "graphonly" {
		t.Errorf("wrong order: %s, %s", got[0].ChunkID, got[1].ChunkID)
	}
}

func TestMergeDeduplicatesGraphChunks(t *testing.T) {
	graph := []rag.RetrievedChunk{
		{ChunkID: "g", MatchedEntity: "Acme"},
		{ChunkID: "g", MatchedEntity: "Globex"},
	}
	got := mergeAndRerank(nil, graph, 5)
	if len(got) != 1 {
		t.Fatalf("duplicate graph chunk should merge, got %d", len(got))
	}
}
