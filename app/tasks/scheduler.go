package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/pharma-pulse/app/feed"
)

const (
	DefaultInterval    = 30 * time.Minute
	DefaultWorkerCount = 8
)

var ErrRefreshInProgress = errors.New("refresh cycle already in progress")

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type RefreshResult struct {
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Fallback   int       `json:"fallback"`
	Empty      int       `json:"empty"`
	DurationMs int64     `json:"durationMs"`
	StartedAt  time.Time `json:"startedAt"`
}

type Stats struct {
	CyclesRun     int64          `json:"cyclesRun"`
	CyclesSkipped int64          `json:"cyclesSkipped"`
	Running       bool           `json:"running"`
	LastResult    *RefreshResult `json:"lastResult,omitempty"`
}

type Scheduler struct {
	registry    *feed.Registry
	fetcher     FeedFetcher
	parser      FeedParser
	classifier  *feed.Classifier
	cache       *feed.SnapshotCache
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     atomic.Bool
	inflight    singleflight.Group

	statsMu sync.RWMutex
	stats   Stats
}

func NewScheduler(registry *feed.Registry, fetcher FeedFetcher, parser FeedParser,
	classifier *feed.Classifier, cache *feed.SnapshotCache, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if interval <= 0 {
		interval = DefaultInterval
	}
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}

	return &Scheduler{
		registry:    registry,
		fetcher:     fetcher,
		parser:      parser,
		classifier:  classifier,
		cache:       cache,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start runs one full cycle immediately and then one per interval until Stop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runCycle()
			}
		}
	}()

	slog.Debug("Scheduler started", "interval", s.interval, "workers", s.workerCount, "sources", s.registry.Len())
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) runCycle() {
	if _, err := s.RefreshAll(s.ctx); err != nil {
		slog.Warn("Scheduled refresh cycle skipped", "error", err)
	}
}

// RefreshAll refreshes every registered source on the worker pool and waits
// for all of them. It fails only when another cycle is already running.
func (s *Scheduler) RefreshAll(ctx context.Context) (RefreshResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.statsMu.Lock()
		s.stats.CyclesSkipped++
		s.statsMu.Unlock()
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer s.running.Store(false)

	ctx, cancel := s.detach(ctx)
	defer cancel()

	sources := s.registry.Sources()
	result := RefreshResult{
		Total:     len(sources),
		StartedAt: time.Now().UTC(),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.workerCount)

	for _, src := range sources {
		g.Go(func() error {
			outcome, _ := s.refresh(ctx, src)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case OutcomeSuccess:
				result.Successful++
			case OutcomeFallback:
				result.Fallback++
				result.Failed++
			default:
				result.Empty++
				result.Failed++
			}
			return nil
		})
	}
	g.Wait()

	result.DurationMs = time.Since(result.StartedAt).Milliseconds()

	s.statsMu.Lock()
	s.stats.CyclesRun++
	last := result
	s.stats.LastResult = &last
	s.statsMu.Unlock()

	slog.Info("Refresh cycle completed",
		"total", result.Total,
		"successful", result.Successful,
		"fallback", result.Fallback,
		"empty", result.Empty,
		"duration_ms", result.DurationMs)

	return result, nil
}

// RefreshSource runs the pipeline for a single source. Concurrent calls for
// the same source share one fetch.
func (s *Scheduler) RefreshSource(ctx context.Context, src feed.Source) (Outcome, error) {
	ctx, cancel := s.detach(ctx)
	defer cancel()
	return s.refresh(ctx, src)
}

func (s *Scheduler) refresh(ctx context.Context, src feed.Source) (Outcome, error) {
	v, err, shared := s.inflight.Do(src.Name, func() (any, error) {
		return s.run(ctx, NewRefreshSourceTask(src, s.fetcher, s.parser, s.classifier, s.cache))
	})
	if shared {
		slog.Debug("Joined in-flight refresh", "source", src.Name)
	}
	return v.(Outcome), err
}

func (s *Scheduler) run(ctx context.Context, task TaskInterface) (Outcome, error) {
	task.Start()
	err := task.Execute(ctx)

	if err == nil {
		slog.Info("Task completed",
			"type", string(task.GetType()),
			"id", task.GetID(),
			"source", task.GetSourceName(),
			"outcome", string(task.Outcome()),
			"duration", task.GetDuration())
	}

	return task.Outcome(), err
}

func (s *Scheduler) Stats() Stats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	stats := s.stats
	if stats.LastResult != nil {
		last := *stats.LastResult
		stats.LastResult = &last
	}
	stats.Running = s.running.Load()
	return stats
}

// detach keeps a refresh alive when its caller goes away; only Stop cancels it.
func (s *Scheduler) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
