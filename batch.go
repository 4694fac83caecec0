package argon2

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// BatchResult is one item of the stream produced by HashBatch. Index
// identifies the password it belongs to; exactly one of Tag and Err is
// set.
type BatchResult struct {
	Index int
	Tag   []byte
	Err   error
}

// BatchProgress is a snapshot passed to the progress callback after
// each completed item.
type BatchProgress struct {
	Completed int
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration

	// ETA is the projected remaining time, extrapolated linearly from
	// the completed items. Zero until the first item finishes.
	ETA time.Duration
}

// BatchOptions tunes HashBatch.
type BatchOptions struct {
	// Workers caps the worker pool. The effective size is
	// min(Workers, runtime.NumCPU(), len(passwords)); zero means one
	// worker per logical CPU.
	Workers int

	// Progress, when non-nil, is invoked at most once per completed
	// item from a single goroutine, so it needs no locking of its own.
	Progress func(BatchProgress)
}

// HashBatch hashes every password under the same parameter set using a
// bounded worker pool and streams results on the returned channel. The
// channel carries one result per completed password and is closed when
// the batch is done. On cancellation the stream ends early: hashes in
// progress stop at their next slice boundary with ErrCancelled, queued
// items are never reported, and once the collector observes the
// cancellation it stops forwarding, so results not yet delivered at
// that point are dropped.
//
// Ordering across items is not guaranteed; use BatchResult.Index to
// correlate. The per-call memory matrices are wiped exactly as in
// Hasher.Hash, so peak memory is bounded by workers * Params.Memory.
func HashBatch(ctx context.Context, params Params, passwords [][]byte, opts BatchOptions) <-chan BatchResult {
	if ctx == nil {
		ctx = context.Background()
	}
	workers := opts.Workers
	if cpus := runtime.NumCPU(); workers <= 0 || workers > cpus {
		workers = cpus
	}
	if workers > len(passwords) {
		workers = len(passwords)
	}
	if workers < 1 {
		workers = 1
	}

	out := make(chan BatchResult, workers)

	h, err := New(params)
	if err != nil {
		go func() {
			defer close(out)
			for i := range passwords {
				select {
				case out <- BatchResult{Index: i, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}

	jobs := make(chan int)
	inner := make(chan BatchResult, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tag, err := h.HashContext(ctx, passwords[i])
				inner <- BatchResult{Index: i, Tag: tag, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range passwords {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(inner)
	}()

	// Collector: forwards results, tracks progress, and invokes the
	// callback serially.
	go func() {
		defer close(out)
		start := time.Now()
		progress := BatchProgress{Total: len(passwords)}
		for res := range inner {
			progress.Completed++
			if res.Err != nil {
				progress.Failed++
			} else {
				progress.Succeeded++
			}
			progress.Elapsed = time.Since(start)
			remaining := progress.Total - progress.Completed
			progress.ETA = progress.Elapsed / time.Duration(progress.Completed) * time.Duration(remaining)
			if opts.Progress != nil {
				opts.Progress(progress)
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
