// Command hunter checks the POTA activator feed for wanted spots, enriches
// them with QRZ operator names, and sends one Pushover batch per run.
//
// Without SCHEDULE it runs once and exits non-zero on failure. With SCHEDULE
// it runs immediately, then on the cron schedule, serving health, metrics,
// and manual runs over HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/pota-spot-hunter/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/pota-spot-hunter/internal/adapter/kafka"
	"github.com/couchcryptid/pota-spot-hunter/internal/adapter/pota"
	"github.com/couchcryptid/pota-spot-hunter/internal/adapter/pushover"
	"github.com/couchcryptid/pota-spot-hunter/internal/adapter/qrz"
	redisstore "github.com/couchcryptid/pota-spot-hunter/internal/adapter/redis"
	"github.com/couchcryptid/pota-spot-hunter/internal/adapter/sqlite"
	"github.com/couchcryptid/pota-spot-hunter/internal/adapter/telegram"
	"github.com/couchcryptid/pota-spot-hunter/internal/config"
	"github.com/couchcryptid/pota-spot-hunter/internal/credential"
	"github.com/couchcryptid/pota-spot-hunter/internal/observability"
	"github.com/couchcryptid/pota-spot-hunter/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// credentialStore is a credential.Store that holds a connection.
type credentialStore interface {
	credential.Store
	io.Closer
}

func main() {
	dryRun := flag.Bool("dry-run", false, "log the composed batch instead of sending notifications")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	flag.Parse()

	os.Exit(run(*dryRun, *envFile))
}

func run(dryRun bool, envFile string) int {
	if err := config.LoadDotEnv(envFile); err != nil {
		slog.Error("failed to load env file", "error", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger, logCloser := observability.NewLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open credential store", "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("credential store close error", "error", err)
		}
	}()

	qrzClient := qrz.NewClient(cfg.QRZAPIURL, cfg.QRZUsername, cfg.QRZPassword, cfg.QRZTimeout, metrics, logger)
	tokens := credential.NewCache(store, qrzClient, logger, metrics)
	source := pota.NewClient(cfg.POTAFeedURL, logger)
	enricher := pipeline.NewEnricher(qrzClient, logger, metrics)

	notifiers := []pipeline.Notifier{
		pushover.NewClient(pushover.Options{
			APIURL: cfg.PushoverAPIURL,
			Token:  cfg.PushoverToken,
			User:   cfg.PushoverUser,
			Sound:  cfg.PushoverSound,
			Title:  cfg.PushoverTitle,
		}, logger),
	}
	if cfg.TelegramEnabled() {
		tg, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Error("failed to create telegram notifier", "error", err)
			return 1
		}
		notifiers = append(notifiers, tg)
		logger.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}

	var opts []pipeline.Option
	if dryRun {
		opts = append(opts, pipeline.WithDryRun())
		logger.Info("dry run: notifications disabled")
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSpotTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSpotTopic)
	}

	p := pipeline.New(source, tokens, enricher, notifiers, cfg.Criteria,
		clockwork.NewRealClock(), logger, metrics, opts...)

	logger.Info("criteria loaded",
		"locations", cfg.Criteria.Regions(),
		"modes", cfg.Criteria.Modes(),
		"window", cfg.Criteria.Window(),
	)

	if !cfg.Scheduled() {
		res, err := p.RunOnce(ctx)
		if err != nil {
			logger.Error("run failed", "run_id", res.RunID, "error", err)
			return 1
		}
		logger.Info("run complete", "run_id", res.RunID, "fetched", res.Fetched, "matched", res.Matched)
		return 0
	}

	return serve(ctx, cfg, p, logger, metrics)
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger, metrics *observability.Metrics) int {
	sched, err := pipeline.NewScheduler(p, cfg.Schedule, logger)
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		return 1
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, sched, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if res, err := sched.Trigger(ctx); err != nil {
		logger.Error("initial run failed", "run_id", res.RunID, "error", err)
	}

	sched.Start(ctx)
	metrics.Scheduled.Set(1)

	<-ctx.Done()
	logger.Info("shutting down")
	metrics.Scheduled.Set(0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler stop error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (credentialStore, error) {
	if cfg.RedisAddr != "" {
		logger.Info("using redis credential store", "addr", cfg.RedisAddr)
		return redisstore.Open(ctx, redisstore.Options{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, logger)
	}
	logger.Info("using sqlite credential store", "path", cfg.CredentialDBPath)
	return sqlite.Open(cfg.CredentialDBPath, logger)
}
