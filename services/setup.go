package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"flight-scraper/config"
	"flight-scraper/notify"
	"flight-scraper/scraper"
	"flight-scraper/scraper/booking"
	"flight-scraper/storage"
	"flight-scraper/utils"
)

// NewRegistry returns every supported platform
func NewRegistry(logger *utils.Logger) *scraper.Registry {
	return scraper.NewRegistry(booking.New(logger))
}

// NewSearchJob wires a SearchJob from configuration. Optional backends
// (Redis, PostgreSQL, OpenSearch, SFTP) are enabled by their settings;
// one that fails to connect is logged and skipped. The returned cleanup
// closes whatever was opened.
func NewSearchJob(ctx context.Context, cfg *config.Config, out io.Writer, logger *utils.Logger) (*SearchJob, func(), error) {
	platform, err := NewRegistry(logger).Get(cfg.Platform)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	var fetcher scraper.Fetcher
	switch cfg.Transport {
	case "browser":
		fetcher = scraper.NewBrowserFetcher(timeout, cfg.MaxRetries, logger)
	default:
		fetcher = scraper.NewHTTPFetcher(timeout, cfg.MaxRetries, logger)
	}

	if cfg.RedisAddr != "" {
		ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
		cache, err := storage.NewRedisPayloadCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl, logger)
		if err != nil {
			logger.Warn("Payload cache disabled: %v", err)
		} else {
			closers = append(closers, cache.Close)
			fetcher = scraper.NewCachedFetcher(fetcher, cache, logger)
		}
	}

	job := &SearchJob{
		Platform: platform,
		Fetcher:  fetcher,
		BaseRequest: scraper.FetchRequest{
			URL:   cfg.APIURL,
			Query: cfg.SearchQuery(),
			Proxy: cfg.Proxy,
		},
		Aggregator:      AggregatorOptions{PerDateCap: cfg.PerDateCap, Limit: cfg.Limit},
		DelayMinSeconds: cfg.DelayMinSeconds,
		DelayMaxSeconds: cfg.DelayMaxSeconds,
		CSV:             storage.NewCSVWriter(cfg.CSVFilePath, logger),
		Out:             out,
		Logger:          logger,
	}

	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Warn("PostgreSQL export disabled: %v", err)
		} else {
			closers = append(closers, pg.Close)
			job.Exporters = append(job.Exporters, Exporter{Name: "postgres", Exporter: pg, Destination: storage.DefaultResultsTable})
		}
	}

	if len(cfg.OpenSearchAddresses) > 0 {
		osw, err := storage.NewOpenSearchWriter(cfg.OpenSearchAddresses, cfg.OpenSearchUser, cfg.OpenSearchPass, logger)
		if err != nil {
			logger.Warn("OpenSearch export disabled: %v", err)
		} else {
			job.Exporters = append(job.Exporters, Exporter{Name: "opensearch", Exporter: osw, Destination: cfg.OpenSearchIndex})
		}
	}

	if cfg.SFTPHost != "" {
		up, err := storage.NewSFTPUploader(storage.SFTPConfig{
			Host:           cfg.SFTPHost,
			Port:           cfg.SFTPPort,
			User:           cfg.SFTPUser,
			Pass:           cfg.SFTPPass,
			RemoteDir:      cfg.SFTPRemoteDir,
			KnownHostsFile: cfg.SFTPKnownHosts,
		}, logger)
		if err != nil {
			logger.Warn("SFTP upload disabled: %v", err)
		} else {
			job.Uploader = up
		}
	}

	job.Dispatcher = notify.NewDispatcher(cfg.OutputDir, logger, notifiers(cfg, logger)...)
	return job, cleanup, nil
}

func notifiers(cfg *config.Config, logger *utils.Logger) []notify.Notifier {
	var out []notify.Notifier
	add := func(name string, n notify.Notifier, err error) {
		if err != nil {
			logger.Warn("%s notifications disabled: %v", name, err)
			return
		}
		out = append(out, n)
	}

	if cfg.ServerChanEnabled {
		n, err := notify.NewServerChan(cfg.ServerChanKey, "")
		add("ServerChan", n, err)
	}
	if cfg.TelegramEnabled {
		n, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, "")
		add("Telegram", n, err)
	}
	if cfg.EmailEnabled {
		n, err := notify.NewEmail(notify.EmailConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			To:   cfg.EmailTo,
		})
		add("Email", n, err)
	}
	return out
}

// DescribeBackends lists what a job will export to, for startup logging
func DescribeBackends(job *SearchJob) string {
	s := "csv"
	for _, e := range job.Exporters {
		s += ", " + e.Name
	}
	if job.Uploader != nil {
		s += ", sftp"
	}
	return fmt.Sprintf("[%s]", s)
}
