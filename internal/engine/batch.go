package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/weightbot/internal/service"
)

// BatchOptions configures batch estimation.
type BatchOptions struct {
	// OnProgress is called after each product completes, from a single goroutine.
	OnProgress      func(done, total int)
	ParallelWorkers int
}

// DefaultBatchOptions returns sensible defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{ParallelWorkers: 4}
}

// BatchResult is the outcome for one request of a batch.
type BatchResult struct {
	Error   error
	Request Request
	Output  Output
	Index   int
}

// BatchSummary contains statistics about a batch run.
type BatchSummary struct {
	Results        []BatchResult
	TotalProducts  int
	TotalOptions   int
	FailedCount    int
	ProcessingTime time.Duration
}

// RunBatch estimates every request with a pool of workers. Results keep the order of
// reqs. Cancelling ctx stops workers from picking up new requests; unprocessed requests
// report the context error.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request, deltas service.DeltaSource, opts BatchOptions) *BatchSummary {
	startTime := time.Now()
	if opts.ParallelWorkers <= 0 {
		opts.ParallelWorkers = DefaultBatchOptions().ParallelWorkers
	}

	workChan := make(chan int, len(reqs))
	for i := range reqs {
		workChan <- i
	}
	close(workChan)

	resultsChan := make(chan BatchResult, len(reqs))

	var wg sync.WaitGroup
	wg.Add(opts.ParallelWorkers)
	for i := 0; i < opts.ParallelWorkers; i++ {
		go func(workerID int) {
			defer wg.Done()
			p.batchWorker(ctx, workerID, reqs, workChan, resultsChan, deltas)
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	summary := &BatchSummary{
		Results:       make([]BatchResult, len(reqs)),
		TotalProducts: len(reqs),
	}
	seen := make([]bool, len(reqs))
	done := 0
	for result := range resultsChan {
		summary.Results[result.Index] = result
		seen[result.Index] = true
		done++
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(reqs))
		}
	}

	for i, ok := range seen {
		if !ok {
			summary.Results[i] = BatchResult{Index: i, Request: reqs[i], Error: ctx.Err()}
		}
	}
	for _, r := range summary.Results {
		if r.Error != nil {
			summary.FailedCount++
			continue
		}
		summary.TotalOptions += len(r.Output.Rows)
	}
	summary.ProcessingTime = time.Since(startTime)

	slog.Info("batch estimation complete",
		"products", summary.TotalProducts,
		"options", summary.TotalOptions,
		"failed", summary.FailedCount,
		"duration", summary.ProcessingTime)

	return summary
}

func (p *Pipeline) batchWorker(
	ctx context.Context,
	workerID int,
	reqs []Request,
	workChan <-chan int,
	resultsChan chan<- BatchResult,
	deltas service.DeltaSource,
) {
	for idx := range workChan {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := p.Run(reqs[idx], deltas)
		if err != nil {
			p.logger.Warn("skipping product",
				"worker_id", workerID,
				"product_code", reqs[idx].ProductCode,
				"error", err)
		}
		resultsChan <- BatchResult{Index: idx, Request: reqs[idx], Output: out, Error: err}
	}
}
