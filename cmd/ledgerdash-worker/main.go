package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgerdash/internal/amqp"
	"ledgerdash/internal/config"
	"ledgerdash/internal/ledger"
	"ledgerdash/internal/ledger/splitwise"
	"ledgerdash/internal/log"
	"ledgerdash/internal/pipeline"
	"ledgerdash/internal/report"
	"ledgerdash/internal/resolve"
	"ledgerdash/internal/snapshot"
	"ledgerdash/internal/snapshot/drive"
	"ledgerdash/internal/snapshot/local"
	"ledgerdash/internal/storage"
)

// The worker runs the full pipeline on a fixed interval: live fetch,
// snapshot backup, report delivery. Unlike the CLI it always fetches
// live so each cycle captures new ledger activity.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting ledgerdash-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		logger.Error("Worker requires a ledger credential", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, cleanup, err := buildWorkerPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", log.FieldError, err)
		os.Exit(1)
	}
	defer cleanup()

	// First run immediately, then on the interval.
	runOnce(ctx, p, logger)

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, stopping worker")
			return
		case <-ticker.C:
			runOnce(ctx, p, logger)
		}
	}
}

func runOnce(ctx context.Context, p *pipeline.Pipeline, logger *log.Logger) {
	start := time.Now()
	if _, err := p.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.ErrorContext(ctx, "Scheduled run failed", log.FieldError, err)
		return
	}
	logger.InfoContext(ctx, "Scheduled run finished", log.FieldDuration, time.Since(start).Milliseconds())
}

func buildWorkerPipeline(ctx context.Context, cfg *config.Config, logger *log.Logger) (*pipeline.Pipeline, func(), error) {
	client, err := splitwise.NewClient(splitwise.Config{
		APIKey:  cfg.SplitwiseAPIKey,
		GroupID: cfg.SplitwiseGroupID,
		Timeout: cfg.FetchTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	paginator := ledger.NewPaginator(client, ledger.PaginatorConfig{
		PageSize:   cfg.PageSize,
		MaxRecords: cfg.MaxRecords,
		Retry: ledger.RetryPolicy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			Multiplier:   2.0,
			MaxDelay:     cfg.RetryMaxDelay,
		},
	}, ledger.NewPacer(cfg.RequestsPerMinute), logger)

	localStore := local.New(cfg.OutputDir)

	var (
		remoteWriter snapshot.Writer
		driveSink    report.Sink
	)
	if cfg.DriveConfigured() {
		driveStore, err := drive.NewFromEnv(ctx, logger)
		if err != nil {
			return nil, nil, err
		}
		remoteWriter = driveStore
		driveSink = &report.DriveSink{Store: driveStore}
	}

	// Cache disabled: every scheduled cycle fetches live.
	resolver := resolve.New(nil, nil, paginator, nil, false, logger)

	sinks := []report.Sink{&report.FileSink{Dir: cfg.OutputDir}}
	if cfg.EmailConfigured() {
		sender := report.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.GmailAddress, cfg.GmailAppPassword, logger)
		sinks = append(sinks, &report.EmailSink{
			Sender:     sender,
			Recipients: cfg.Recipients(),
			Title:      cfg.DashboardTitle,
		})
	}

	var closeFns []func() error
	if cfg.AMQPConfigured() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFns = append(closeFns, amqpClient.Close)
		sinks = append(sinks, &report.EventSink{Pub: amqpClient})
	}

	var archive pipeline.Archive
	if cfg.SQLiteDBPath != "" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		closeFns = append(closeFns, repo.Close)
		archive = repo
	}

	p, err := pipeline.New(pipeline.Deps{
		Resolver:      resolver,
		LocalWriter:   localStore,
		RemoteWriter:  remoteWriter,
		DriveSink:     driveSink,
		Sinks:         sinks,
		Archive:       archive,
		Logger:        logger,
		Title:         cfg.DashboardTitle,
		TopCategories: cfg.TopCategories,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		for _, close := range closeFns {
			if err := close(); err != nil {
				logger.Warn("Close failed", log.FieldError, err)
			}
		}
	}
	return p, cleanup, nil
}
