package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

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

func main() {
	var (
		noCache  = flag.Bool("no-cache", false, "skip the cache tiers and fetch live")
		email    = flag.Bool("email", false, "email the report to RECIPIENT_EMAIL")
		noUpload = flag.Bool("no-upload", false, "skip the Google Drive upload")
		verbose  = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := log.DefaultConfig()
	if *verbose {
		logCfg = log.VerboseConfig()
	}
	logger := log.New(logCfg)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, closers, err := buildPipeline(ctx, cfg, logger, runOptions{
		useCache: !*noCache,
		email:    *email,
		upload:   !*noUpload,
	})
	if err != nil {
		logger.Error("Failed to build pipeline", log.FieldError, err)
		os.Exit(1)
	}
	defer closers.closeAll(logger)

	if _, err := p.Run(ctx); err != nil {
		logger.Error("Run failed", log.FieldError, err)
		os.Exit(1)
	}
}

type runOptions struct {
	useCache bool
	email    bool
	upload   bool
}

type closerList []func() error

func (l closerList) closeAll(logger *log.Logger) {
	for _, close := range l {
		if err := close(); err != nil {
			logger.Warn("Close failed", log.FieldError, err)
		}
	}
}

// buildPipeline wires every configured component. Optional pieces
// (Drive, email, AMQP, archive) degrade to nil when unconfigured.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *log.Logger, opts runOptions) (*pipeline.Pipeline, closerList, error) {
	var closers closerList

	var paginator *ledger.Paginator
	if cfg.SplitwiseAPIKey != "" {
		client, err := splitwise.NewClient(splitwise.Config{
			APIKey:  cfg.SplitwiseAPIKey,
			GroupID: cfg.SplitwiseGroupID,
			Timeout: cfg.FetchTimeout,
		})
		if err != nil {
			return nil, closers, err
		}
		paginator = ledger.NewPaginator(client, ledger.PaginatorConfig{
			PageSize:   cfg.PageSize,
			MaxRecords: cfg.MaxRecords,
			Retry: ledger.RetryPolicy{
				MaxAttempts:  cfg.RetryMaxAttempts,
				InitialDelay: cfg.RetryInitialDelay,
				Multiplier:   2.0,
				MaxDelay:     cfg.RetryMaxDelay,
			},
		}, ledger.NewPacer(cfg.RequestsPerMinute), logger)
	} else if opts.useCache {
		logger.Info("No ledger credential, cache tiers only")
	} else if err := cfg.RequireAPIKey(); err != nil {
		return nil, closers, err
	}

	localStore := local.New(cfg.OutputDir)

	var (
		remoteStore  snapshot.Store
		remoteWriter snapshot.Writer
		driveSink    report.Sink
	)
	if cfg.DriveConfigured() {
		driveStore, err := drive.NewFromEnv(ctx, logger)
		if err != nil {
			return nil, closers, err
		}
		remoteStore = driveStore
		if opts.upload {
			remoteWriter = driveStore
			driveSink = &report.DriveSink{Store: driveStore}
		}
	}

	resolver := resolve.New(remoteStore, localStore, paginator, nil, opts.useCache, logger)

	sinks := []report.Sink{&report.FileSink{Dir: cfg.OutputDir}}
	if opts.email {
		if !cfg.EmailConfigured() {
			logger.Warn("Email requested but GMAIL_ADDRESS or GMAIL_APP_PASSWORD missing, skipping")
		} else {
			sender := report.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.GmailAddress, cfg.GmailAppPassword, logger)
			sinks = append(sinks, &report.EmailSink{
				Sender:     sender,
				Recipients: cfg.Recipients(),
				Title:      cfg.DashboardTitle,
			})
		}
	}
	if cfg.AMQPConfigured() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, amqpClient.Close)
		sinks = append(sinks, &report.EventSink{Pub: amqpClient})
	}

	var archive pipeline.Archive
	if cfg.SQLiteDBPath != "" {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, repo.Close)
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
		return nil, closers, err
	}
	return p, closers, nil
}
