// Package collector drives the fan-out across providers and cities: it
// plans each (provider, city) pair's effective fetch window against the
// journal, applies the retry/backoff policy around the provider call, and
// writes accepted records through the store.
package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forecastlabs/weather-collector/internal/weather"
)

// DefaultWaitTimeSecs is how long the orchestrator sleeps after a 429
// before retrying, per the retry policy.
const DefaultWaitTimeSecs = 10

// maxAttempts bounds retryable attempts per (provider, city) fetch.
const maxAttempts = 3

// JournalStore is the slice of *store.Store the orchestrator depends on;
// narrowed to an interface so the retry/dedup policy can be tested without a
// real database.
type JournalStore interface {
	ExistingDates(ctx context.Context, cityID int64, dataSource string, start, end time.Time) (map[time.Time]struct{}, error)
	AppendNewRecords(ctx context.Context, cityID int64, records []weather.Record, existing map[time.Time]struct{}) (int, error)
}

// Orchestrator owns the providers, the store, and the concurrency knobs for
// one collection run.
type Orchestrator struct {
	Providers []weather.Provider
	Store     JournalStore

	Start time.Time
	End   time.Time

	// ConcurrentSessionsAllowed bounds in-flight DB sessions across the
	// whole run, regardless of how many provider x city tasks are live.
	ConcurrentSessionsAllowed int

	Log *logrus.Entry

	sem chan struct{}
}

// Summary counts successful and skipped (provider, city) pairs across a run.
type Summary struct {
	Succeeded int
	Skipped   int
	Inserted  int
}

// Setup fans Setup out across every provider concurrently. If any provider
// fails to set up, the others are still torn down by the caller via
// Teardown — Setup itself does not roll back partial success, matching the
// "teardown guaranteed even on failure" design.
func (o *Orchestrator) Setup(ctx context.Context) error {
	o.sem = make(chan struct{}, o.ConcurrentSessionsAllowed)

	var wg sync.WaitGroup
	errs := make(chan error, len(o.Providers))
	for _, p := range o.Providers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Setup(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Teardown tears every provider down, collecting (not stopping on) errors.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	var firstErr error
	for _, p := range o.Providers {
		if err := p.Teardown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run fans providers out concurrently (outer loop); within each provider,
// cities are dispatched concurrently (inner loop), gated by the shared
// DB-session semaphore.
func (o *Orchestrator) Run(ctx context.Context, cities []weather.City) Summary {
	var (
		mu      sync.Mutex
		total   Summary
		wgOuter sync.WaitGroup
	)

	for _, p := range o.Providers {
		p := p
		wgOuter.Add(1)
		go func() {
			defer wgOuter.Done()
			s := o.runProvider(ctx, p, cities)
			mu.Lock()
			total.Succeeded += s.Succeeded
			total.Skipped += s.Skipped
			total.Inserted += s.Inserted
			mu.Unlock()
		}()
	}
	wgOuter.Wait()
	return total
}

func (o *Orchestrator) runProvider(ctx context.Context, p weather.Provider, cities []weather.City) Summary {
	var (
		mu      sync.Mutex
		summary Summary
		wg      sync.WaitGroup
	)

	for _, city := range cities {
		city := city

		select {
		case o.sem <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-o.sem }()

			inserted, err := o.collectOne(ctx, p, city)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Skipped++
				return
			}
			summary.Succeeded++
			summary.Inserted += inserted
		}()
	}
	wg.Wait()
	return summary
}

// collectOne runs the full (provider, city) cycle: plan the effective
// window, fetch under the retry policy, and write through the store.
func (o *Orchestrator) collectOne(ctx context.Context, p weather.Provider, city weather.City) (int, error) {
	log := o.Log.WithFields(logrus.Fields{"provider": p.Name(), "city": city.Name, "window_start": o.Start, "window_end": o.End})

	existing, err := o.Store.ExistingDates(ctx, city.ID, p.Name(), o.Start, o.End)
	if err != nil {
		log.WithError(err).Error("failed to read existing journal dates")
		return 0, err
	}

	fetchStart, fetchEnd := o.Start, o.End
	if len(existing) > 0 {
		for d := range existing {
			if d.Before(fetchStart) {
				fetchStart = d
			}
			if d.After(fetchEnd) {
				fetchEnd = d
			}
		}
	}

	records, err := o.fetchWithRetry(ctx, p, city, fetchStart, fetchEnd, log)
	if err != nil {
		if errors.Is(err, errSkipSlice) {
			log.Debug("skipping slice: no data for this provider/city")
			return 0, errSkipSlice
		}
		log.WithError(err).Warn("skipping (provider, city) after a failed fetch")
		return 0, err
	}
	if records == nil {
		return 0, nil
	}

	inserted, err := o.Store.AppendNewRecords(ctx, city.ID, records, existing)
	if err != nil {
		log.WithError(err).Error("failed to append records")
		return inserted, err
	}
	return inserted, nil
}

var errSkipSlice = errors.New("collector: slice has no data for this provider/city")

// fetchWithRetry applies the retry policy around one provider call: 429
// sleeps DefaultWaitTimeSecs then retries, 404 is a non-retried skip, any
// other >=400 status retries up to maxAttempts before giving up. A decode or
// unit-conversion failure is returned at once, without a retry.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, p weather.Provider, city weather.City, start, end time.Time, log *logrus.Entry) ([]weather.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		records, err := p.GetHistoricalWeather(ctx, city.Coordinate(), start, end)
		if err == nil {
			return records, nil
		}
		lastErr = err

		var httpErr *weather.HTTPStatusError
		if errors.As(err, &httpErr) {
			switch httpErr.Status {
			case 404:
				return nil, errSkipSlice
			case 429:
				log.WithField("status", 429).Warn("rate limited, backing off")
				select {
				case <-time.After(DefaultWaitTimeSecs * time.Second):
				case <-ctx.Done():
					return nil, &weather.CancelError{Err: ctx.Err()}
				}
				continue
			default:
				log.WithField("status", httpErr.Status).Warn("provider returned an error status, retrying")
				continue
			}
		}

		var cancelErr *weather.CancelError
		if errors.As(err, &cancelErr) || ctx.Err() != nil {
			return nil, err
		}

		var decodeErr *weather.DecodeError
		var unitErr *weather.UnitConversionError
		if errors.As(err, &decodeErr) || errors.As(err, &unitErr) {
			return nil, err
		}

		log.WithError(err).Warn("provider fetch failed, retrying")
	}
	return nil, lastErr
}
