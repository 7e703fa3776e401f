package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	applog "barkeep/internal/log"
	"barkeep/models"
)

var (
	// ErrWorkerDispatch matches every DispatchError.
	ErrWorkerDispatch = errors.New("usage worker dispatch failed")
	// ErrSchedulerClosed is wrapped by DispatchError when Submit runs after Close.
	ErrSchedulerClosed = errors.New("usage scheduler closed")
)

// DispatchError reports that a background computation could not start or
// did not complete. Callers should fall back to zero usage.
type DispatchError struct {
	RequestID string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("usage request %s: %v", e.RequestID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrWorkerDispatch) match any DispatchError.
func (e *DispatchError) Is(target error) bool {
	return target == ErrWorkerDispatch
}

// Options configures a Scheduler.
type Options struct {
	// Workers bounds the number of computations running at once.
	Workers int
	// Timeout bounds how long a request may wait for a free worker.
	Timeout time.Duration
	// Registerer receives the scheduler metrics when set.
	Registerer prometheus.Registerer
}

// Scheduler runs Compute off the caller's goroutine. Each request works on its
// own copy of the inputs, so requests never share state and may complete in
// any order.
type Scheduler struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	compute func([]models.Cocktail, Bar) Map
	metrics *schedulerMetrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler builds a Scheduler. Workers below 1 are raised to 1.
func NewScheduler(opts Options) *Scheduler {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: opts.Timeout,
		compute: Compute,
		metrics: newSchedulerMetrics(opts.Registerer),
	}
}

// Future is the pending result of a submitted computation.
type Future struct {
	id     string
	done   chan struct{}
	result Map
	err    error
}

func newFuture() *Future {
	return &Future{id: uuid.NewString(), done: make(chan struct{})}
}

// ID is the correlation id of the request.
func (f *Future) ID() string {
	return f.id
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome. It must only be called after Done is closed.
func (f *Future) Result() (Map, error) {
	return f.result, f.err
}

// Wait blocks until the result is ready or ctx ends. When ctx ends first the
// computation keeps running and its result is dropped.
func (f *Future) Wait(ctx context.Context) (Map, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) resolve(result Map, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Submit dispatches a computation over a snapshot of cocktails and bar.
func (s *Scheduler) Submit(cocktails []models.Cocktail, bar Bar) *Future {
	future := newFuture()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		s.metrics.observe(bar, time.Time{}, ErrSchedulerClosed)
		future.resolve(nil, &DispatchError{RequestID: future.id, Err: ErrSchedulerClosed})
		return future
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	snapshot, barCopy := copyCocktails(cocktails), copyBar(bar)
	go s.run(future, snapshot, barCopy)
	return future
}

// Compute submits a request and waits for it.
func (s *Scheduler) Compute(ctx context.Context, cocktails []models.Cocktail, bar Bar) (Map, error) {
	return s.Submit(cocktails, bar).Wait(ctx)
}

// Close stops accepting requests and waits for running ones to finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) run(future *Future, cocktails []models.Cocktail, bar Bar) {
	defer s.wg.Done()

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		applog.Warn(ctx, "usage request timed out waiting for a worker", "request", future.id, "error", err)
		s.metrics.observe(bar, time.Time{}, err)
		future.resolve(nil, &DispatchError{RequestID: future.id, Err: err})
		return
	}
	defer s.sem.Release(1)

	start := time.Now()
	result, err := s.safeCompute(cocktails, bar)
	s.metrics.observe(bar, start, err)
	if err != nil {
		applog.Error(ctx, "usage computation failed", "request", future.id, "error", err)
		future.resolve(nil, &DispatchError{RequestID: future.id, Err: err})
		return
	}

	applog.Debug(ctx, "usage computation finished",
		"request", future.id,
		"cocktails", len(cocktails),
		"ingredients", len(result),
		"scoped", bar != nil,
	)
	future.resolve(result, nil)
}

func (s *Scheduler) safeCompute(cocktails []models.Cocktail, bar Bar) (result Map, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return s.compute(cocktails, bar), nil
}

func copyCocktails(cocktails []models.Cocktail) []models.Cocktail {
	out := make([]models.Cocktail, len(cocktails))
	for i, cocktail := range cocktails {
		out[i] = cocktail
		out[i].Tags = append([]models.Tag(nil), cocktail.Tags...)
		lines := make([]models.CocktailIngredientLine, len(cocktail.IngredientLines))
		for j, line := range cocktail.IngredientLines {
			lines[j] = line
			if line.Amount != nil {
				amount := *line.Amount
				lines[j].Amount = &amount
			}
			if line.UnitID != nil {
				unit := *line.UnitID
				lines[j].UnitID = &unit
			}
			lines[j].SubstituteIngredientIDs = append([]uint(nil), line.SubstituteIngredientIDs...)
		}
		out[i].IngredientLines = lines
	}
	return out
}

func copyBar(bar Bar) Bar {
	if bar == nil {
		return nil
	}
	out := make(Bar, len(bar))
	for id := range bar {
		out[id] = struct{}{}
	}
	return out
}

type schedulerMetrics struct {
	computations *prometheus.CounterVec
	duration     prometheus.Histogram
}

func newSchedulerMetrics(reg prometheus.Registerer) *schedulerMetrics {
	m := &schedulerMetrics{
		computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barkeep_usage_computations_total",
				Help: "Ingredient usage computations by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "barkeep_usage_computation_seconds",
				Help:    "Time spent computing ingredient usage",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.computations, m.duration)
	}
	return m
}

func (m *schedulerMetrics) observe(bar Bar, start time.Time, err error) {
	mode := "unscoped"
	if bar != nil {
		mode = "scoped"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.computations.WithLabelValues(mode, outcome).Inc()
	if !start.IsZero() {
		m.duration.Observe(time.Since(start).Seconds())
	}
}
