package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"geoenrich/internal/metrics"
	"geoenrich/internal/model"
	"geoenrich/internal/util"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc/pool"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("enrichment run already in progress")

const defaultProgressEvery = 1000

// Options controls the enrichment pipeline
type Options struct {
	// Workers is the number of records processed concurrently (default 1)
	Workers int
	// RecordTimeout bounds resolving and updating a single record, 0 disables it
	RecordTimeout time.Duration
	// UpdateRetries is how many times a failed update is retried
	UpdateRetries int
	// RetryInterval is the initial backoff between update retries
	RetryInterval time.Duration
	// Cache is consulted before the resolver when set
	Cache Cache
	// ProgressEvery logs progress after that many records (default 1000)
	ProgressEvery int
}

// Stats summarizes one enrichment run
type Stats struct {
	RunID      string    `json:"run_id"`
	Processed  int64     `json:"processed"`
	Resolved   int64     `json:"resolved"`
	Unresolved int64     `json:"unresolved"`
	Failed     int64     `json:"failed"`
	Skipped    int64     `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type outcome int

const (
	outcomeResolved outcome = iota
	outcomeUnresolved
	outcomeFailed
	outcomeSkipped
)

// counters are shared by the workers of a run
type counters struct {
	processed  atomic.Int64
	resolved   atomic.Int64
	unresolved atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
}

func (c *counters) add(o outcome) int64 {
	switch o {
	case outcomeResolved:
		c.resolved.Add(1)
		metrics.RecordsTotal.WithLabelValues(metrics.OutcomeResolved).Inc()
	case outcomeUnresolved:
		c.unresolved.Add(1)
		metrics.RecordsTotal.WithLabelValues(metrics.OutcomeUnresolved).Inc()
	case outcomeFailed:
		c.failed.Add(1)
		metrics.RecordsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	case outcomeSkipped:
		c.skipped.Add(1)
	}
	return c.processed.Add(1)
}

func (c *counters) fill(stats *Stats) {
	stats.Processed = c.processed.Load()
	stats.Resolved = c.resolved.Load()
	stats.Unresolved = c.unresolved.Load()
	stats.Failed = c.failed.Load()
	stats.Skipped = c.skipped.Load()
}

// Service enriches tracking records with the administrative area of their position
type Service struct {
	store    Store
	resolver Resolver
	opts     Options

	runMutex  sync.Mutex
	statsLock sync.RWMutex
	lastStats *Stats
}

// New creates an enrichment service
func New(store Store, resolver Resolver, opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.UpdateRetries < 0 {
		opts.UpdateRetries = 0
	}
	if opts.ProgressEvery < 1 {
		opts.ProgressEvery = defaultProgressEvery
	}
	return &Service{
		store:    store,
		resolver: resolver,
		opts:     opts,
	}
}

// Run enriches every record returned by the store. Per-record failures are
// logged and counted; the returned error is set only when the records could
// not be read or ctx was cancelled. Updates applied before a cancellation stay.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	if !s.runMutex.TryLock() {
		return Stats{}, ErrRunInProgress
	}
	defer s.runMutex.Unlock()

	stats := Stats{
		RunID:     util.NewRunID(),
		StartedAt: time.Now(),
	}
	metrics.RunsTotal.Inc()
	log.Printf("=== Starting enrichment run %s (%d workers) ===", stats.RunID, s.opts.Workers)

	cursor, err := s.store.Find(ctx)
	if err != nil {
		stats.FinishedAt = time.Now()
		return stats, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		if err := cursor.Close(context.WithoutCancel(ctx)); err != nil {
			log.Printf("WARNING: failed to close record cursor: %v", err)
		}
	}()

	var c counters
	p := pool.New().WithMaxGoroutines(s.opts.Workers)
	for cursor.Next(ctx) {
		record, err := cursor.Decode()
		if err != nil {
			log.Printf("ERROR: failed to decode record: %v", err)
			s.progress(&c, c.add(outcomeFailed))
			continue
		}

		p.Go(func() {
			s.progress(&c, c.add(s.process(ctx, record)))
		})
	}
	p.Wait()

	c.fill(&stats)
	stats.FinishedAt = time.Now()
	s.statsLock.Lock()
	s.lastStats = &stats
	s.statsLock.Unlock()

	runErr := cursor.Err()
	if ctx.Err() != nil {
		runErr = fmt.Errorf("enrichment run cancelled: %w", ctx.Err())
	} else if runErr != nil {
		runErr = fmt.Errorf("failed to read records: %w", runErr)
	}

	log.Printf("=== Enrichment run %s completed in %v ===", stats.RunID, stats.FinishedAt.Sub(stats.StartedAt))
	log.Printf("Processed: %d, resolved: %d, unresolved: %d, failed: %d, skipped: %d",
		stats.Processed, stats.Resolved, stats.Unresolved, stats.Failed, stats.Skipped)

	return stats, runErr
}

// LastStats returns the summary of the last finished run
func (s *Service) LastStats() (Stats, bool) {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()

	if s.lastStats == nil {
		return Stats{}, false
	}
	return *s.lastStats, true
}

func (s *Service) progress(c *counters, processed int64) {
	if processed%int64(s.opts.ProgressEvery) == 0 {
		log.Printf("Enrichment progress: %d records (%d resolved, %d unresolved, %d failed)",
			processed, c.resolved.Load(), c.unresolved.Load(), c.failed.Load())
	}
}

// process runs one record through extraction, resolution and update
func (s *Service) process(ctx context.Context, record *model.TrackingRecord) outcome {
	if record.HasCity() {
		return outcomeSkipped
	}

	point, err := ExtractPoint(record)
	if err != nil {
		log.Printf("ERROR: %v", err)
		return outcomeFailed
	}

	recordCtx, cancel := s.recordContext(ctx)
	defer cancel()

	key, found, err := s.Resolve(recordCtx, point)
	if err != nil {
		log.Printf("ERROR: failed to resolve point %v of record %v: %v", record.Data.Position.Point, record.ID, err)
		return outcomeFailed
	}
	if !found {
		return outcomeUnresolved
	}

	adminKey, err := model.ParseAdministrativeKey(key)
	if err != nil {
		log.Printf("ERROR: record %v at %v: %v", record.ID, record.Data.Position.Point, err)
		return outcomeFailed
	}

	record.Data.Position.Apply(adminKey)
	log.Printf("cityName %s %v %v", adminKey.CityName, point.Longitude, point.Latitude)

	if err := s.update(recordCtx, record); err != nil {
		log.Printf("ERROR: failed to update record %v at %v: %v", record.ID, record.Data.Position.Point, err)
		return outcomeFailed
	}
	return outcomeResolved
}

func (s *Service) recordContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RecordTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.RecordTimeout)
	}
	return context.WithCancel(ctx)
}

// Resolve returns the key of the area containing the point, consulting the
// cache first when one is configured
func (s *Service) Resolve(ctx context.Context, point model.GeographicPoint) (string, bool, error) {
	start := time.Now()
	defer func() {
		metrics.ResolveDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if s.opts.Cache != nil {
		key, found, err := s.opts.Cache.Get(ctx, point)
		switch {
		case err != nil:
			log.Printf("WARNING: resolution cache lookup failed for %s: %v", point, err)
		case found:
			metrics.CacheHitsTotal.Inc()
			return key, key != "", nil
		default:
			metrics.CacheMissesTotal.Inc()
		}
	}

	key, found, err := s.lookup(ctx, point)
	if err != nil {
		return "", false, err
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, point, key); err != nil {
			log.Printf("WARNING: failed to cache resolution for %s: %v", point, err)
		}
	}
	return key, found, nil
}

type lookupResult struct {
	key   string
	found bool
}

// lookup queries the resolver, giving up when ctx is done
func (s *Service) lookup(ctx context.Context, point model.GeographicPoint) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("point resolution aborted: %w", err)
	}

	done := make(chan lookupResult, 1)
	go func() {
		key, found := s.resolver.FindContainingKey(point)
		done <- lookupResult{key: key, found: found}
	}()

	select {
	case result := <-done:
		return result.key, result.found, nil
	case <-ctx.Done():
		return "", false, fmt.Errorf("point resolution aborted: %w", ctx.Err())
	}
}

// update writes the record back, retrying with exponential backoff
func (s *Service) update(ctx context.Context, record *model.TrackingRecord) error {
	operation := func() error {
		err := s.store.UpdateData(ctx, record)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	exponential := backoff.NewExponentialBackOff()
	if s.opts.RetryInterval > 0 {
		exponential.InitialInterval = s.opts.RetryInterval
	}
	backoffWithMaxRetry := backoff.WithContext(
		backoff.WithMaxRetries(exponential, uint64(s.opts.UpdateRetries)), ctx)

	return backoff.RetryNotify(operation, backoffWithMaxRetry, func(err error, t time.Duration) {
		metrics.UpdateRetriesTotal.Inc()
		log.Printf("WARNING: retrying update of record %v in %s: %v", record.ID, t, err)
	})
}
