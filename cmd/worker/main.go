package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"bizplan/internal/ai"
	"bizplan/internal/config"
	"bizplan/internal/database"
	"bizplan/internal/metrics"
	"bizplan/internal/storage"
	"bizplan/internal/tasks"
	"bizplan/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	llmClient, err := ai.NewOpenAILLM(ai.Settings{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		log.Fatalf("init llm client: %v", err)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	pdfHandler := worker.NewPDFTaskHandler(
		db,
		storageClient,
		redisClient,
		logger,
		cfg.Worker.InternalSecret,
		cfg.Worker.InternalAPIBaseURL,
		cfg.Worker.FrontendBaseURL,
	)
	evaluationHandler := worker.NewEvaluationTaskHandler(db, storageClient, redisClient, llmClient, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypePDFGenerate, pdfHandler)
	mux.Handle(tasks.TypeEvaluationGenerate, evaluationHandler)

	logger.Info("worker service started", slog.String("redis_addr", cfg.Redis.Addr()))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
