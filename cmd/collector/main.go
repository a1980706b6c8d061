package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"techtrends/internal/config"
	"techtrends/internal/domain"
	"techtrends/internal/publisher"
	"techtrends/internal/scheduler"
	"techtrends/internal/service"
	"techtrends/internal/source"
	"techtrends/internal/source/hatena"
	"techtrends/internal/source/note"
	"techtrends/internal/source/qiita"
	"techtrends/internal/source/zenn"
	"techtrends/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize stores
	articleStore := postgres.NewArticleStore(db)
	tagStore := postgres.NewTagStore(db)
	mediaStore := postgres.NewMediaSourceStore(db)
	crawlLogStore := postgres.NewCrawlLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mediaStore.Seed(ctx, catalogSources(cfg)); err != nil {
		logger.Error("failed to seed media sources", "error", err)
		os.Exit(1)
	}

	// The publisher is optional: collection works without a broker.
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	collector := service.NewCollector(
		buildSources(cfg, logger),
		mediaStore,
		articleStore,
		tagStore,
		crawlLogStore,
		txManager,
		pub,
		logger,
	)

	sched := scheduler.NewScheduler(collector, cfg.Collect.Interval, cfg.Collect.Timeout, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting article collector", "interval", cfg.Collect.Interval)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func buildSources(cfg *config.Config, logger *slog.Logger) []source.Source {
	return []source.Source{
		qiita.New(qiita.Config{
			BaseURL:        cfg.Sources.Qiita.BaseURL,
			AccessToken:    cfg.Sources.Qiita.AccessToken,
			PerPage:        cfg.Sources.Qiita.PerPage,
			WindowDays:     cfg.Sources.Qiita.WindowDays,
			MinStocks:      cfg.Sources.Qiita.MinStocks,
			Timeout:        cfg.Sources.Qiita.Timeout,
			MaxAttempts:    cfg.Sources.Qiita.Retry.MaxAttempts,
			InitialBackoff: cfg.Sources.Qiita.Retry.InitialBackoff,
			MaxBackoff:     cfg.Sources.Qiita.Retry.MaxBackoff,
		}, logger),
		zenn.New(zenn.Config{
			BaseURL: cfg.Sources.Zenn.BaseURL,
			Order:   cfg.Sources.Zenn.Order,
			Count:   cfg.Sources.Zenn.Count,
			Timeout: cfg.Sources.Zenn.Timeout,
		}, logger),
		note.New(note.Config{
			BaseURL:        cfg.Sources.Note.BaseURL,
			Keywords:       cfg.Sources.Note.Keywords,
			PageSize:       cfg.Sources.Note.PageSize,
			RequestDelay:   cfg.Sources.Note.RequestDelay,
			BlockedAuthors: cfg.Sources.Note.BlockedAuthors,
			Timeout:        cfg.Sources.Note.Timeout,
		}, logger),
		hatena.New(hatena.Config{
			FeedURLs: cfg.Sources.Hatena.FeedURLs,
			Limit:    cfg.Sources.Hatena.Limit,
			Timeout:  cfg.Sources.Hatena.Timeout,
		}, logger),
	}
}

func catalogSources(cfg *config.Config) []domain.MediaSource {
	sources := make([]domain.MediaSource, 0, len(cfg.Sources.Catalog))
	for _, e := range cfg.Sources.Catalog {
		sources = append(sources, domain.MediaSource{
			Name:        e.Name,
			DisplayName: e.DisplayName,
			BaseURL:     e.BaseURL,
			IsActive:    e.Active,
		})
	}
	return sources
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
