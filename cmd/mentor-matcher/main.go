// cmd/mentor-matcher/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mentor-matcher/internal/common/aws"
	"mentor-matcher/internal/common/config"
	"mentor-matcher/internal/common/database"
	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/common/metrics"
	"mentor-matcher/internal/common/observability"
	"mentor-matcher/internal/pipeline"
	"mentor-matcher/pkg/rubric"

	ed "mentor-matcher/internal/stages/enrichment/enrich-directory"
	ml "mentor-matcher/internal/stages/matching/match-llm"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return apperrors.ExitCode(err)
	}

	zapLog, err := logger.NewRunLogger(cfg.Logging.Level, cfg.Logging.ConsoleLevel, cfg.Logging.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return apperrors.ExitCode(apperrors.NewConfigError(err.Error()))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)
	errHandler := apperrors.NewErrorHandler(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Preflight(cfg, time.Now()); err != nil {
		return errHandler.HandleRunError("", err)
	}

	rb, err := rubric.Load(cfg.Rubric.Path)
	if err != nil {
		return errHandler.HandleRunError("", apperrors.NewConfigError(err.Error()))
	}

	m := metrics.New()
	obs, err := observability.New(cfg.App.Name, m.Registry)
	if err != nil {
		zapLog.Warn("stage timing disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	// --- Directory (optional lookup cache) ---
	var cache *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		cache = database.NewRedis(cfg.Database.Redis)
		if err := cache.Ping(ctx); err != nil {
			zapLog.Warn("redis unavailable, directory lookups are not cached", zap.Error(err))
			_ = cache.Close()
			cache = nil
		} else {
			defer cache.Close()
		}
	}
	directory := ed.NewDirectoryClient(ed.LoadConfig(cfg), cache, log)

	// --- Completion provider ---
	provider, err := ml.NewProvider(ctx, ml.LoadConfig(cfg))
	if err != nil {
		return errHandler.HandleRunError("", err)
	}

	deps := pipeline.Dependencies{
		Directory:     directory,
		Provider:      provider,
		Rubric:        rb,
		Metrics:       m,
		Observability: obs,
	}

	// --- Optional run archive ---
	if cfg.Database.Postgres.Enabled {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Warn("postgres unavailable, run will not be archived", zap.Error(err))
		} else {
			defer pg.Close()
			deps.Archive = pg
		}
	}

	// --- Optional delivery ---
	if cfg.Integrations.AWS.S3.Bucket != "" {
		s3Client, err := aws.NewS3Client(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.S3.Endpoint)
		if err != nil {
			zapLog.Warn("s3 client unavailable", zap.Error(err))
		} else {
			deps.Uploader = s3Client
		}
	}
	if cfg.Integrations.AWS.SES.FromEmail != "" && len(cfg.Integrations.AWS.SES.Recipients) > 0 {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Warn("ses client unavailable", zap.Error(err))
		} else {
			deps.Mailer = sesClient
		}
	}

	summary, err := pipeline.NewRunner(cfg, deps, log).Run(ctx)
	if err != nil {
		return errHandler.HandleRunError(summary.RunID, err)
	}

	zapLog.Info(fmt.Sprintf("Wrote %d matches (%d unmatched) to %s", summary.Matched, summary.Unmatched, summary.OutputPath))
	return 0
}

// loadConfig reads CONFIG_FILE when set, otherwise configs/config.yaml.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
