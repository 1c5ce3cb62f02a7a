package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"flight-scraper/config"
	"flight-scraper/services"
	"flight-scraper/utils"
)

// SearchEvent overrides configured search settings for one invocation
type SearchEvent struct {
	StartDate  string `json:"start_date,omitempty"`
	DaysRange  int    `json:"days_range,omitempty"`
	ReturnDays int    `json:"return_days,omitempty"`
	TopN       int    `json:"top_n,omitempty"`
	Notify     *bool  `json:"notify,omitempty"`
}

// SearchResponse is returned to the invoker
type SearchResponse struct {
	RunID         string  `json:"run_id"`
	DatesSearched int     `json:"dates_searched"`
	DatesWithData int     `json:"dates_with_data"`
	Offers        int     `json:"offers"`
	MinPrice      float64 `json:"min_price,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Results       string  `json:"results"`
	ArchivePath   string  `json:"archive_path,omitempty"`
}

func handler(ctx context.Context, event SearchEvent) (*SearchResponse, error) {
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	opts, err := searchOptions(cfg, event, time.Now())
	if err != nil {
		return nil, err
	}

	job, cleanup, err := services.NewSearchJob(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outcome, err := job.Run(ctx, opts)
	if err != nil {
		logger.Error("Search failed: %v", err)
		return nil, err
	}

	resp := &SearchResponse{
		RunID:         outcome.RunID,
		DatesSearched: outcome.Report.DatesSearched,
		DatesWithData: outcome.Report.DatesWithData,
		Offers:        outcome.Report.TotalResults,
		MinPrice:      outcome.Report.MinPrice,
		Currency:      outcome.Report.Currency,
		Results:       outcome.Body,
		ArchivePath:   outcome.ArchivePath,
	}
	return resp, nil
}

// searchOptions layers the event over configuration
func searchOptions(cfg *config.Config, event SearchEvent, now time.Time) (services.SearchOptions, error) {
	opts := services.SearchOptions{
		StartDate:  now,
		DaysRange:  cfg.DaysRange,
		ReturnDays: cfg.ReturnDays,
		TopN:       cfg.TopN,
		Title:      cfg.NotifyTitle,
		Notify:     true,
	}

	startDate := cfg.StartDate
	if event.StartDate != "" {
		startDate = event.StartDate
	}
	if startDate != "" {
		start, err := services.ParseStartDate(startDate)
		if err != nil {
			return opts, err
		}
		opts.StartDate = start
	}
	if event.DaysRange > 0 {
		opts.DaysRange = event.DaysRange
	}
	if event.ReturnDays > 0 {
		opts.ReturnDays = event.ReturnDays
	}
	if event.TopN > 0 {
		opts.TopN = event.TopN
	}
	if event.Notify != nil {
		opts.Notify = *event.Notify
	}
	return opts, nil
}

func main() {
	lambda.Start(handler)
}
