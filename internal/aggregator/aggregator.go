package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/daz2d/coptic-service-events/internal/cache"
	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/dedupe"
	"github.com/daz2d/coptic-service-events/internal/logger"
)

// MaxWorkers is the hard upper bound on concurrency, chosen to stay polite
// to third-party sources regardless of configuration.
const MaxWorkers = 20

// Options configures one aggregation run.
type Options struct {
	// MaxConcurrency is the fixed worker pool size, 1..MaxWorkers. The
	// bound is enforced exactly: the pool never exceeds it even transiently.
	MaxConcurrency int

	// TaskTimeout is the per-unit fetch deadline, independent of any
	// overall deadline on the run context.
	TaskTimeout time.Duration

	// Cache, when set, is consulted before each fetch and written through
	// after each success.
	Cache *cache.Cache

	// Limiter, when set, paces adapter fetches across all workers.
	Limiter *rate.Limiter

	// Retry, when set, wraps each fetch in a backoff schedule. Nil means
	// one attempt per unit.
	Retry *RetryPolicy

	// Metrics, when set, receives run counters and fetch timings.
	Metrics *logger.Metrics
}

func (o Options) validate() error {
	if o.MaxConcurrency < 1 || o.MaxConcurrency > MaxWorkers {
		return fmt.Errorf("%w: max concurrency %d outside 1..%d", ErrInvalidInput, o.MaxConcurrency, MaxWorkers)
	}
	if o.TaskTimeout <= 0 {
		return fmt.Errorf("%w: task timeout must be positive", ErrInvalidInput)
	}
	return nil
}

// Result is the outcome of one aggregation run: the deduplicated record set,
// the failure report, and whether the run was cut short by cancellation.
type Result struct {
	RunID       string          `json:"run_id"`
	Venues      []*church.Venue `json:"venues"`
	Events      []*church.Event `json:"events"`
	Failures    []FailureReport `json:"failures,omitempty"`
	Incomplete  bool            `json:"incomplete,omitempty"` // canceled before all units ran
	CacheHits   int             `json:"cache_hits"`
	UnitsRun    int             `json:"units_run"`
	VerifyDrops map[string]int  `json:"verify_drops,omitempty"`
}

// Run fans units out across a fixed pool of workers, feeding successful
// fetches through the dedup engine and recording failures per unit. A
// ValidationError on the aggregate input fails fast; per-unit errors never
// abort the batch. Cancelling ctx stops workers promptly and returns the
// records collected so far.
func Run(ctx context.Context, units []WorkUnit, adapter SourceAdapter, engine *dedupe.Engine, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, fmt.Errorf("%w: nil source adapter", ErrInvalidInput)
	}
	if engine == nil {
		engine = dedupe.New()
	}
	for _, u := range units {
		if err := u.validate(); err != nil {
			return nil, err
		}
	}

	workers := opts.MaxConcurrency
	if len(units) < workers && len(units) > 0 {
		workers = len(units)
	}

	run := &runState{
		adapter: adapter,
		engine:  engine,
		opts:    opts,
	}

	queue := make(chan WorkUnit)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range queue {
				if ctx.Err() != nil {
					// Drain without fetching so the producer can finish.
					continue
				}
				run.process(ctx, unit)
			}
		}()
	}

	for _, unit := range units {
		queue <- unit
	}
	close(queue)
	wg.Wait()

	stats := engine.Verify()

	result := &Result{
		RunID:      uuid.NewString(),
		Venues:     engine.Venues(),
		Events:     engine.Events(),
		Failures:   run.failures,
		Incomplete: ctx.Err() != nil,
		CacheHits:  run.cacheHits,
		UnitsRun:   run.unitsRun,
	}
	if stats.Total() > 0 {
		result.VerifyDrops = make(map[string]int, len(stats.Dropped))
		for reason, n := range stats.Dropped {
			result.VerifyDrops[string(reason)] = n
		}
	}

	logger.Info("aggregation run complete", logger.Fields{
		"run_id":     result.RunID,
		"units":      len(units),
		"units_run":  result.UnitsRun,
		"venues":     len(result.Venues),
		"events":     len(result.Events),
		"failures":   len(result.Failures),
		"cache_hits": result.CacheHits,
		"incomplete": result.Incomplete,
	})

	return result, nil
}

// runState accumulates shared outcome across workers. The dedup engine has
// its own internal critical section; everything else updates under mu.
type runState struct {
	adapter SourceAdapter
	engine  *dedupe.Engine
	opts    Options

	mu        sync.Mutex
	failures  []FailureReport
	cacheHits int
	unitsRun  int
}

// process handles one work unit end to end: cache lookup, fetch with
// timeout, write-through, and dedup admission.
func (r *runState) process(ctx context.Context, unit WorkUnit) {
	r.mu.Lock()
	r.unitsRun++
	r.mu.Unlock()

	if records, ok := r.cachedRecords(unit); ok {
		r.mu.Lock()
		r.cacheHits++
		r.mu.Unlock()
		r.count("aggregator.cache_hits")
		r.admit(records)
		return
	}

	if r.opts.Limiter != nil {
		if err := r.opts.Limiter.Wait(ctx); err != nil {
			return
		}
	}

	start := time.Now()
	records, err := r.fetch(ctx, unit)
	if r.opts.Metrics != nil {
		r.opts.Metrics.RecordTiming("aggregator.fetch", time.Since(start))
	}

	if err != nil {
		if ctx.Err() != nil {
			// Caller cancellation, not a unit failure: abandon quietly.
			return
		}
		class := classifyError(err)
		r.mu.Lock()
		r.failures = append(r.failures, FailureReport{Unit: unit.ID(), Class: class, Err: err.Error()})
		r.mu.Unlock()
		r.count("aggregator.failures")
		logger.Warn("work unit failed", logger.Fields{"unit": unit.ID(), "class": string(class), "error": err.Error()})
		return
	}

	r.writeThrough(unit, records)
	r.admit(records)
}

// fetch invokes the adapter under the per-task timeout and the retry policy.
// No lock is held here: the network call runs free.
func (r *runState) fetch(ctx context.Context, unit WorkUnit) (Records, error) {
	return fetchWithRetry(ctx, r.opts.Retry, func() (Records, error) {
		taskCtx, cancel := context.WithTimeout(ctx, r.opts.TaskTimeout)
		defer cancel()
		return r.adapter.Fetch(taskCtx, unit)
	})
}

func (r *runState) cachedRecords(unit WorkUnit) (Records, bool) {
	if r.opts.Cache == nil || unit.CacheKey == "" {
		return Records{}, false
	}
	var records Records
	if !r.opts.Cache.GetJSON(unit.CacheKey, &records) {
		return Records{}, false
	}
	return records, true
}

func (r *runState) writeThrough(unit WorkUnit, records Records) {
	if r.opts.Cache == nil || unit.CacheKey == "" {
		return
	}
	if err := r.opts.Cache.Set(unit.CacheKey, records, unit.CacheTTL); err != nil {
		logger.Warn("cache write-through failed", logger.Fields{"unit": unit.ID(), "error": err.Error()})
	}
}

// admit feeds fetched records through the dedup engine.
func (r *runState) admit(records Records) {
	for _, v := range records.Venues {
		kept, reason := r.engine.Admit(v)
		if kept {
			r.count("aggregator.venues_admitted")
			if reason == dedupe.ReasonUnverifiable {
				r.count("aggregator.venues_unverifiable")
			}
		} else {
			r.count("aggregator.venues_skipped")
		}
	}
	for _, evt := range records.Events {
		if kept, _ := r.engine.AdmitEvent(evt); kept {
			r.count("aggregator.events_admitted")
		} else {
			r.count("aggregator.events_skipped")
		}
	}
}

func (r *runState) count(name string) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.IncrCounter(name)
	}
}
