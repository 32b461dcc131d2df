package extract

import (
	"context"
	"strings"
	"sync"

	"github.com/docsage/backend/pkg/logger"
	"github.com/docsage/backend/pkg/rag"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc reports batch extraction progress. It is called once per
// finished chunk with the number of chunks done so far and the total.
type ProgressFunc func(done, total int)

// ExtractBatch extracts entities from all chunks with bounded concurrency,
// returning results aligned with the input order. Blank chunks produce
// empty extractions without a model call. The optional onProgress callback
// is invoked serially with a strictly increasing done count.
func (e *Extractor) ExtractBatch(
	ctx context.Context,
	chunks []rag.Chunk,
	onProgress ProgressFunc,
) ([]rag.Extraction, error) {
	total := len(chunks)
	results := make([]rag.Extraction, total)
	if total == 0 {
		return results, nil
	}

	var mu sync.Mutex
	done := 0
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if onProgress != nil {
			onProgress(done, total)
		}
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for i := range chunks {
		idx := i
		chunk := chunks[i]
		if strings.TrimSpace(chunk.Text) == "" {
			report()
			continue
		}
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			result := e.ExtractChunk(ectx, chunk.Text)
			results[idx] = result
			report()
			if len(result.Entities) > 0 {
				logger.Debug("chunk extraction finished",
					"chunk", chunk.ID,
					"entities", len(result.Entities),
					"relationships", len(result.Relationships),
				)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
