package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vk/dspchain/internal/chain"
	"github.com/vk/dspchain/internal/config"
	"github.com/vk/dspchain/internal/ctxlog"
	"github.com/vk/dspchain/internal/table"
)

// inFlightPerWorker bounds how many events may be read ahead of the
// collector, per worker.
const inFlightPerWorker = 4

// Executor runs a chain over event streams. It is safe to call Run
// repeatedly; every run clones the chain afresh.
type Executor struct {
	chain   *chain.Chain
	workers int
	metrics *Metrics
}

// Summary describes a finished run.
type Summary struct {
	RunID   string
	Workers int
	// Events is the number of rows written to the sink.
	Events  int64
	Elapsed time.Duration
}

// New returns an executor for c. workers < 1 uses GOMAXPROCS. metrics may be nil.
func New(c *chain.Chain, workers int, metrics *Metrics) *Executor {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{chain: c, workers: workers, metrics: metrics}
}

type job struct {
	seq int64
	ev  *table.Event
}

type result struct {
	seq int64
	row *table.Row
}

// Run reads every event from src, processes it and writes its row to sink.
// It stops at the first source, contract or sink error and returns it.
func (e *Executor) Run(ctx context.Context, src table.Source, sink table.Sink) (Summary, error) {
	runID := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "run_id", runID)

	summary := Summary{RunID: runID, Workers: e.workers}
	start := time.Now()
	logger.Info("Executor: Run started.", "workers", e.workers, "steps", len(e.chain.Schedule()))

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, e.workers)
	results := make(chan result, e.workers)
	window := make(chan struct{}, e.workers*inFlightPerWorker)

	g.Go(func() error {
		defer close(jobs)
		return e.read(gctx, src, jobs, window)
	})

	var wg sync.WaitGroup
	for i := range e.workers {
		wg.Add(1)
		c := e.chain.Clone()
		g.Go(func() error {
			defer wg.Done()
			return e.work(gctx, i, c, jobs, results)
		})
	}
	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	g.Go(func() error {
		n, err := e.collect(gctx, sink, results, window)
		summary.Events = n
		return err
	})

	err := g.Wait()
	summary.Elapsed = time.Since(start)
	if err != nil {
		logger.Error("Executor: Run failed.", "error", err, "events_written", summary.Events)
		return summary, err
	}
	logger.Info("Executor: Run finished.", "events", summary.Events, "elapsed", summary.Elapsed)
	return summary, nil
}

func (e *Executor) read(ctx context.Context, src table.Source, jobs chan<- job, window chan struct{}) error {
	logger := ctxlog.FromContext(ctx)
	var seq int64
	for {
		select {
		case window <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			logger.Debug("Executor: Source exhausted.", "events", seq)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event %d: %w", seq, err)
		}
		select {
		case jobs <- job{seq: seq, ev: ev}:
		case <-ctx.Done():
			return ctx.Err()
		}
		seq++
	}
}

func (e *Executor) work(ctx context.Context, id int, c *chain.Chain, jobs <-chan job, results chan<- result) error {
	logger := ctxlog.FromContext(ctx).With("worker_id", id)
	logger.Debug("Executor: Worker started.")

	for j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		begin := time.Now()
		if err := c.Execute(j.ev); err != nil {
			var cerr *config.ContractError
			if errors.As(err, &cerr) {
				e.metrics.violation()
			}
			logger.Error("Executor: Event failed.", "event", j.ev.Index, "error", err)
			return err
		}
		row := c.Project(j.ev)
		e.metrics.observeRow(row, time.Since(begin).Seconds())

		select {
		case results <- result{seq: j.seq, row: row}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	logger.Debug("Executor: Worker finished.")
	return nil
}

// collect writes rows in sequence order, holding back those that finish
// early.
func (e *Executor) collect(ctx context.Context, sink table.Sink, results <-chan result, window <-chan struct{}) (int64, error) {
	pending := make(map[int64]*table.Row)
	var next int64
	for r := range results {
		pending[r.seq] = r.row
		for {
			row, ok := pending[next]
			if !ok {
				break
			}
			if err := ctx.Err(); err != nil {
				return next, err
			}
			if err := sink.Write(ctx, row); err != nil {
				return next, fmt.Errorf("write event %d: %w", row.Index, err)
			}
			delete(pending, next)
			e.metrics.written()
			next++
			<-window
		}
	}
	return next, nil
}
