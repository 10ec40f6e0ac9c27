package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/renatodap/coach-context/internal/ai"
	"github.com/renatodap/coach-context/internal/config"
	"github.com/renatodap/coach-context/internal/db"
	"github.com/renatodap/coach-context/internal/embedcache"
	"github.com/renatodap/coach-context/internal/handler"
	"github.com/renatodap/coach-context/internal/job"
	"github.com/renatodap/coach-context/internal/middleware"
	"github.com/renatodap/coach-context/internal/repo"
	"github.com/renatodap/coach-context/internal/schedule"
	"github.com/renatodap/coach-context/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "coach-context",
		Short: "user-context embedding service",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the embedding service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildEmbedder(cfg config.EmbedderConfig) (ai.IEmbedder, error) {
	provider, err := ai.NewProvider(cfg.Provider, cfg.Data)
	if err != nil {
		return nil, err
	}
	embedder := ai.NewEmbedder(provider, cfg.Model, cfg.Dimensions)
	if cfg.CacheSize > 0 && cfg.CacheTTLSeconds > 0 {
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	}
	return embedder, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("embed_model", cfg.Embed.Model),
		zap.Int("dimensions", cfg.Embed.Dimensions),
	)

	embeddingRepo := repo.NewEmbeddingRepo(conn)
	queueRepo := repo.NewQueueRepo(conn)
	profileRepo := repo.NewProfileRepo(conn)
	workoutRepo := repo.NewWorkoutRepo(conn)

	embedder, err := buildEmbedder(cfg.Embed)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	queueEmbedder, err := buildEmbedder(cfg.Queue.Embedder)
	if err != nil {
		return fmt.Errorf("init queue embedder: %w", err)
	}

	embeddingService := service.NewEmbeddingService(embedder, embeddingRepo, profileRepo, workoutRepo, cfg.Search)
	queueService := service.NewQueueService(queueEmbedder, queueRepo, embeddingRepo, cfg.Queue.BatchSize, cfg.Queue.MaxRetries)

	deps := handler.RouterDeps{
		Embeddings:    handler.NewEmbeddingHandler(embeddingService),
		Queue:         handler.NewQueueHandler(queueService),
		JWTSecret:     []byte(cfg.JWTSecret),
		WebhookSecret: cfg.WebhookSecret,
		AdminKey:      cfg.AdminKey,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingQueueJob(queueService), cfg.Queue.CronSpec); err != nil {
		return fmt.Errorf("schedule queue job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
