package loader

import (
	"context"

	"github.com/binzume/pokeview/scene"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchSize = 20

type PreloadResult struct {
	Path string
	Root *scene.Node
	Err  error
}

// Preload loads paths in batches. Paths in a batch load concurrently and
// batches run one after another. Results are in input order. A failed path
// does not stop the others; the returned error is the first failure of the
// earliest failing batch.
func (l *ModelLoader) Preload(ctx context.Context, paths []string) ([]PreloadResult, error) {
	size := l.opts.batchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	results := make([]PreloadResult, len(paths))
	var firstErr error
	for start := 0; start < len(paths); start += size {
		end := start + size
		if end > len(paths) {
			end = len(paths)
		}
		var eg errgroup.Group
		for i := start; i < end; i++ {
			i := i
			eg.Go(func() error {
				root, err := l.LoadResult(ctx, paths[i])
				results[i] = PreloadResult{Path: paths[i], Root: root, Err: err}
				return err
			})
		}
		if err := eg.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}
