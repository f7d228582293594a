package simulate

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job holds a simulation request ready to run.
type Job struct {
	Seq    int
	Params Params
	Extra  any // caller-specific data (e.g. a run id)
}

// JobResult holds the output of a single job.
type JobResult struct {
	Seq    int
	Params Params
	Result *Result
	Err    error
	Extra  any
}

// ParallelRun runs jobs on a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used. Jobs received after ctx is done
// come back with ctx's error without running.
func (g *Generator) ParallelRun(ctx context.Context, jobs <-chan Job, workers int) <-chan JobResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan JobResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for job := range jobs {
				var res *Result
				err := ctx.Err()
				if err == nil {
					res, err = g.Run(ctx, job.Params)
				}
				results <- JobResult{
					Seq:    job.Seq,
					Params: job.Params,
					Result: res,
					Err:    err,
					Extra:  job.Extra,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan JobResult, fn func(JobResult) error) error {
	pending := make(map[int]JobResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// RunSeeds runs one replicate of p per seed on a pool of at most workers,
// returning results in seed order. Jobs are fed to ParallelRun and gathered
// with OrderedCollect; the first failure stops the feed and cancels the rest.
func (g *Generator) RunSeeds(ctx context.Context, p Params, seeds []int64, workers int) ([]*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Job)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(jobs)
		for i, seed := range seeds {
			rp := p
			rp.Seed = seed
			select {
			case jobs <- Job{Seq: i, Params: rp, Extra: seed}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	results := make([]*Result, 0, len(seeds))
	err := OrderedCollect(g.ParallelRun(ctx, jobs, workers), func(r JobResult) error {
		seed := r.Extra.(int64)
		if r.Err != nil {
			cancel()
			return fmt.Errorf("seed %d: %w", seed, r.Err)
		}
		results = append(results, r.Result)
		g.logger.Debug("replicate complete",
			zap.Int64("seed", seed),
			zap.Int("mutations", r.Result.Summary.TotalMutations))
		return nil
	})
	if werr := eg.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}
