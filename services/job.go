package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"flight-scraper/models"
	"flight-scraper/scraper"
	"flight-scraper/storage"
	"flight-scraper/utils"
)

// Exporter pairs a ResultExporter with its destination for logging
type Exporter struct {
	Name        string
	Exporter    storage.ResultExporter
	Destination string
}

// Uploader ships a local file somewhere else (see storage.SFTPUploader)
type Uploader interface {
	Upload(ctx context.Context, localPath string) error
}

// Dispatcher delivers the final text (see notify.Dispatcher)
type Dispatcher interface {
	Dispatch(ctx context.Context, title, body string) (string, error)
}

// SearchOptions are the per-run knobs, usually from CLI flags
type SearchOptions struct {
	StartDate  time.Time
	DaysRange  int
	ReturnDays int
	TopN       int
	Title      string
	Notify     bool
}

// SearchJob is one complete multi-date search: aggregate, report, export,
// upload and notify.
type SearchJob struct {
	Platform        scraper.Platform
	Fetcher         scraper.Fetcher
	BaseRequest     scraper.FetchRequest
	Aggregator      AggregatorOptions
	DelayMinSeconds int
	DelayMaxSeconds int
	CSV             *storage.CSVWriter
	Exporters       []Exporter
	Uploader        Uploader
	Dispatcher      Dispatcher
	Out             io.Writer
	Logger          *utils.Logger

	newWaiter func() Waiter
}

// SearchOutcome summarizes a finished run
type SearchOutcome struct {
	RunID       string
	Results     []models.AggregatedResult
	Cheapest    []models.AggregatedResult
	Report      *models.InsightReport
	Body        string
	ArchivePath string
}

func (j *SearchJob) waiter() Waiter {
	if j.newWaiter != nil {
		return j.newWaiter()
	}
	return utils.NewRateLimiter(j.DelayMinSeconds, j.DelayMaxSeconds)
}

// Run executes one search. Export, upload and notification failures are
// logged and do not fail the run; cancellation does.
func (j *SearchJob) Run(ctx context.Context, opts SearchOptions) (*SearchOutcome, error) {
	windows := Generate(opts.StartDate, opts.DaysRange, opts.ReturnDays)
	agg := NewMultiDateAggregator(j.Platform, j.Fetcher, j.BaseRequest, j.waiter(), j.Aggregator, j.Logger)
	logger := j.Logger.With("run_id", agg.RunID())

	logger.Info("Searching cheapest flights from %s over %d days (return after %d days)",
		opts.StartDate.Format(models.DateLayout), opts.DaysRange, opts.ReturnDays)

	results, err := agg.Run(ctx, windows)
	if err != nil {
		return nil, fmt.Errorf("aggregation aborted: %w", err)
	}

	searched, _ := agg.DatesSearched()
	report := NewInsightService(logger).Generate(results, searched)
	if j.Out != nil {
		PrintInsightReport(j.Out, report)
	}

	outcome := &SearchOutcome{
		RunID:    agg.RunID(),
		Results:  results,
		Cheapest: agg.Cheapest(opts.TopN),
		Report:   report,
	}
	outcome.Body = FormatResults(outcome.Cheapest)

	exportCtx := storage.WithRunID(ctx, agg.RunID())
	j.export(exportCtx, results, logger)

	if opts.Notify && j.Dispatcher != nil {
		path, err := j.Dispatcher.Dispatch(ctx, opts.Title, outcome.Body)
		if err != nil {
			logger.Error("Failed to archive notification: %v", err)
		}
		outcome.ArchivePath = path
	} else if j.Out != nil {
		fmt.Fprintln(j.Out, outcome.Body)
	}

	return outcome, nil
}

func (j *SearchJob) export(ctx context.Context, results []models.AggregatedResult, logger *utils.Logger) {
	if j.CSV != nil {
		if err := j.CSV.Export(ctx, results, ""); err != nil {
			logger.Error("Failed to write CSV: %v", err)
		} else if j.Uploader != nil {
			if err := j.Uploader.Upload(ctx, j.CSV.Path()); err != nil {
				logger.Error("Failed to upload CSV: %v", err)
			}
		}
	}

	for _, e := range j.Exporters {
		if err := e.Exporter.Export(ctx, results, e.Destination); err != nil {
			logger.Error("Export to %s failed: %v", e.Name, err)
		}
	}
}
