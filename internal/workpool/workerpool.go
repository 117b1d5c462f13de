package workpool

import (
	"context"
	"sync"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
)

// HandleFunc processes one item. Returning false drops the item from the
// results.
type HandleFunc[T any, R any] func(ctx context.Context, item T) (R, bool)

// WorkerPool fans items out to a fixed number of goroutines and gathers
// the kept results. Result order is not preserved.
type WorkerPool[T any, R any] struct {
	WorkerCount int
	Handle      HandleFunc[T, R]
}

func New[T any, R any](workerCount int, handle HandleFunc[T, R]) *WorkerPool[T, R] {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool[T, R]{
		WorkerCount: workerCount,
		Handle:      handle,
	}
}

// Run processes items and blocks until every worker has finished. When ctx
// is cancelled, items not yet handed out are skipped.
func (wp *WorkerPool[T, R]) Run(ctx context.Context, items []T) []R {
	jobs := make(chan T)
	results := make(chan R, len(items))

	workers := wp.WorkerCount
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go wp.worker(ctx, i, jobs, results, &wg)
	}

feed:
	for _, item := range items {
		select {
		case jobs <- item:
		case <-ctx.Done():
			logger.Error("Worker pool cancelled: %v", ctx.Err())
			break feed
		}
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]R, 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (wp *WorkerPool[T, R]) worker(ctx context.Context, id int, jobs <-chan T, results chan<- R, wg *sync.WaitGroup) {
	defer wg.Done()
	logger.Debug("Worker %d started.", id)

	processed := 0
	for item := range jobs {
		if r, ok := wp.Handle(ctx, item); ok {
			results <- r
		}
		processed++
	}

	logger.Debug("Worker %d stopped after %d items.", id, processed)
}
