package retrieve

import (
	"sort"

	"github.com/docsage/backend/pkg/rag"
)

// GraphBaseScore is assigned to chunks found only through entity lookup,
// which carries no similarity signal of its own.
const GraphBaseScore = 0.7

// hybridBoost multiplies the vector score of chunks that both retrieval
// paths found; the result is clamped to 1.0.
const hybridBoost = 1.2

// mergeAndRerank combines the two retrieval paths. Vector results keep
// their cosine similarity score. Graph results found by vector search too
// upgrade that chunk to a boosted hybrid score and attach the matched
// entity; graph-only results enter with the base score. The merged set is
// returned ordered by score, capped at maxResults.
func mergeAndRerank(
	vectorChunks []rag.RetrievedChunk,
	graphChunks []rag.RetrievedChunk,
	maxResults int,
) []rag.RetrievedChunk {
	merged := make([]rag.RetrievedChunk, 0, len(vectorChunks)+len(graphChunks))
	index := make(map[string]int, len(vectorChunks))

	for _, c := range vectorChunks {
		c.Method = rag.MethodVector
		index[c.ChunkID] = len(merged)
		merged = append(merged, c)
	}

	for _, c := range graphChunks {
		if i, ok := index[c.ChunkID]; ok {
			existing := &merged[i]
			existing.Score = min(existing.Score*hybridBoost, 1.0)
			existing.Method = rag.MethodHybrid
			existing.MatchedEntity = c.MatchedEntity
			existing.MatchedType = c.MatchedType
			continue
		}
		c.Method = rag.MethodGraph
		c.Score = GraphBaseScore
		index[c.ChunkID] = len(merged)
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if maxResults > 0 && len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}
