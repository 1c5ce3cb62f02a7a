package services

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"flight-scraper/models"
	"flight-scraper/scraper"
	"flight-scraper/utils"
)

// DefaultPerDateCap is how many offers are kept from each date's payload
const DefaultPerDateCap = 5

// Waiter paces consecutive fetches; *utils.RateLimiter implements it
type Waiter interface {
	Wait(ctx context.Context) (time.Duration, error)
}

// AggregatorOptions tunes a MultiDateAggregator
type AggregatorOptions struct {
	PerDateCap int // offers kept per date, in payload order; <= 0 means DefaultPerDateCap
	Limit      int // truncate the ranked list; 0 keeps everything
}

// MultiDateAggregator drives one platform over a grid of date windows,
// one fetch at a time, and ranks everything it collected by price.
type MultiDateAggregator struct {
	platform scraper.Platform
	fetcher  scraper.Fetcher
	base     scraper.FetchRequest
	waiter   Waiter
	opts     AggregatorOptions
	runID    string
	logger   *utils.Logger

	// raw payload of the date currently being processed
	payload bytes.Buffer

	mu            sync.Mutex
	results       []models.AggregatedResult
	datesSearched int
	datesWithData int
}

// NewMultiDateAggregator creates an aggregator with a fresh run ID
func NewMultiDateAggregator(
	platform scraper.Platform,
	fetcher scraper.Fetcher,
	base scraper.FetchRequest,
	waiter Waiter,
	opts AggregatorOptions,
	logger *utils.Logger,
) *MultiDateAggregator {
	if opts.PerDateCap <= 0 {
		opts.PerDateCap = DefaultPerDateCap
	}
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	runID := uuid.NewString()
	return &MultiDateAggregator{
		platform: platform,
		fetcher:  fetcher,
		base:     base,
		waiter:   waiter,
		opts:     opts,
		runID:    runID,
		logger:   logger.With("run_id", runID).With("platform", platform.Name()),
	}
}

// RunID identifies this aggregation run in logs and persisted rows
func (a *MultiDateAggregator) RunID() string { return a.runID }

// Run searches every window in order and returns the ranked results.
// Per-date failures are logged and skipped; only context cancellation
// aborts the run, in which case nothing collected so far is returned.
func (a *MultiDateAggregator) Run(ctx context.Context, windows []models.DateWindow) ([]models.AggregatedResult, error) {
	a.logger.Info("Searching %d date windows", len(windows))
	defer a.payload.Reset()

	var collected []models.AggregatedResult
	withData := 0

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			delay, err := a.waiter.Wait(ctx)
			if err != nil {
				return nil, err
			}
			if delay > 0 {
				a.logger.Info("Waited %v before next request", delay)
			}
		}

		a.logger.Info("Fetching %d/%d: %s -> %s", i+1, len(windows), w.DepartDate(), w.ReturnDate())
		taken, err := a.searchWindow(ctx, w)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.logger.Warn("Date %s - %s skipped: %v", w.DepartDate(), w.ReturnDate(), err)
			continue
		}
		if len(taken) == 0 {
			a.logger.Warn("No flights found for %s - %s", w.DepartDate(), w.ReturnDate())
			continue
		}

		withData++
		collected = append(collected, taken...)
		a.logger.Info("Date %s: kept %d offers (total so far: %d)", w.DepartDate(), len(taken), len(collected))
	}

	Rank(collected)
	if a.opts.Limit > 0 && len(collected) > a.opts.Limit {
		collected = collected[:a.opts.Limit]
	}

	a.mu.Lock()
	a.results = collected
	a.datesSearched = len(windows)
	a.datesWithData = withData
	a.mu.Unlock()

	a.logger.Info("Aggregation complete: %d results from %d/%d dates", len(collected), withData, len(windows))
	return a.Results(), nil
}

func (a *MultiDateAggregator) searchWindow(ctx context.Context, w models.DateWindow) ([]models.AggregatedResult, error) {
	req := a.platform.BuildRequest(a.base, w)
	body, err := a.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	a.payload.Reset()
	a.payload.Write(body)

	offers, err := a.platform.Normalize(a.payload.Bytes())
	if err != nil {
		if errors.Is(err, scraper.ErrNoOffers) {
			a.logger.Debug("Empty payload for %s: %v", w.DepartDate(), err)
			return nil, nil
		}
		return nil, err
	}

	n := len(offers)
	if n > a.opts.PerDateCap {
		n = a.opts.PerDateCap
	}
	out := make([]models.AggregatedResult, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, models.AggregatedResult{
			Window:      w,
			FlightIndex: j,
			Offer:       offers[j],
		})
	}
	return out, nil
}

// Rank sorts results ascending by price total, stable, with unpriced
// results last.
func Rank(results []models.AggregatedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PriceTotal() < results[j].PriceTotal()
	})
}

// Results returns a copy of the full ranked list from the last run
func (a *MultiDateAggregator) Results() []models.AggregatedResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AggregatedResult, len(a.results))
	copy(out, a.results)
	return out
}

// Cheapest returns the first n ranked results without re-sorting
func (a *MultiDateAggregator) Cheapest(n int) []models.AggregatedResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n <= 0 {
		return []models.AggregatedResult{}
	}
	if n > len(a.results) {
		n = len(a.results)
	}
	out := make([]models.AggregatedResult, n)
	copy(out, a.results[:n])
	return out
}

// DatesSearched reports how many windows the last run covered and how many
// of them produced at least one offer.
func (a *MultiDateAggregator) DatesSearched() (searched, withData int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.datesSearched, a.datesWithData
}
