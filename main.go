package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"flight-scraper/config"
	"flight-scraper/models"
	"flight-scraper/services"
	"flight-scraper/utils"
)

func main() {
	// ================== Bootstrap ====================
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	startDate := flag.String("start-date", cfg.StartDate, "first departure date (YYYY-MM-DD), defaults to today")
	daysRange := flag.Int("days-range", cfg.DaysRange, "number of consecutive departure dates to search")
	returnDays := flag.Int("return-days", cfg.ReturnDays, "days between departure and return")
	topN := flag.Int("top-n", cfg.TopN, "number of cheapest offers to report")
	title := flag.String("title", cfg.NotifyTitle, "notification title")
	noNotify := flag.Bool("no-notify", false, "print results instead of sending notifications")
	schedule := flag.String("schedule", cfg.Schedule, "cron spec; empty runs once")
	platform := flag.String("platform", cfg.Platform, "flight search platform")
	flag.Parse()

	cfg.Platform = *platform

	start := time.Now()
	if *startDate != "" {
		start, err = services.ParseStartDate(*startDate)
		if err != nil {
			logger.Error("%v", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Flight Price Search System")
	logger.Info("Route: %s → %s | Platform: %s | Transport: %s", cfg.From, cfg.To, cfg.Platform, cfg.Transport)
	logger.Info("Dates: %d from %s | Return after %d days | Top %d",
		*daysRange, start.Format(models.DateLayout), *returnDays, *topN)

	// =================== Wiring ========================================
	job, cleanup, err := services.NewSearchJob(ctx, cfg, os.Stdout, logger)
	if err != nil {
		logger.Error("Cannot set up search: %v", err)
		os.Exit(1)
	}
	defer cleanup()
	logger.Info("Exporting to %s", services.DescribeBackends(job))

	opts := services.SearchOptions{
		StartDate:  start,
		DaysRange:  *daysRange,
		ReturnDays: *returnDays,
		TopN:       *topN,
		Title:      *title,
		Notify:     !*noNotify,
	}

	// =============== One-shot ===================================
	if *schedule == "" {
		outcome, err := job.Run(ctx, opts)
		if err != nil {
			logger.Error("Search failed: %v", err)
			cleanup()
			os.Exit(1)
		}
		fmt.Println(" Done! Run", outcome.RunID, "→", cfg.CSVFilePath)
		return
	}

	// ========= Daemon: re-run on schedule ===========================
	// scheduled runs search from the day they fire unless a start date was pinned;
	// a run still in progress makes the next tick skip
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(*schedule, func() {
		runOpts := opts
		if *startDate == "" {
			runOpts.StartDate = time.Now()
		}
		if _, err := job.Run(ctx, runOpts); err != nil {
			logger.Error("Scheduled search failed: %v", err)
		}
	})
	if err != nil {
		logger.Error("Invalid schedule %q: %v", *schedule, err)
		cleanup()
		os.Exit(2)
	}

	logger.Info("Scheduler started with %q, waiting for interrupt", *schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("Scheduler stopped")
}
