package main

import (
	"context"
	"log"
	"time"

	"selfieapi/config"
	"selfieapi/dbhelper"
	"selfieapi/services"
	"selfieapi/tasks"
	"selfieapi/telegram"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// staleJobAge is how long a job may sit in pending or generating before the sweep fails it.
const staleJobAge = 15 * time.Minute

func runScheduler(redis asynq.RedisClientOpt, logger *zap.Logger) {
	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{
		Logger:   logger.Sugar(),
		LogLevel: asynq.InfoLevel,
	})

	entries := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "*/5 * * * *",
			task: tasks.NewExpireStaleJobsTask(),
			desc: "Expire stale generation jobs",
		},
	}
	for _, entry := range entries {
		entryID, err := scheduler.Register(entry.cron, entry.task, asynq.Queue(tasks.QueueGenerate), asynq.MaxRetry(0))
		if err != nil {
			logger.Fatal("failed to register scheduled task", zap.String("task", entry.desc), zap.Error(err))
		}
		logger.Info("registered scheduled task", zap.String("task", entry.desc), zap.String("id", entryID), zap.String("cron", entry.cron))
	}

	if err := scheduler.Run(); err != nil {
		logger.Fatal("scheduler failed", zap.Error(err))
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %s", err)
	}
	defer logger.Sync()

	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env, Release: "selfieapi@1.0.0"}); err != nil {
		logger.Fatal("sentry.Init", zap.Error(err))
	}
	defer sentry.Flush(2 * time.Second)

	if cfg.BrokerAddress == "" {
		logger.Fatal("ASYNC_BROKER_ADDRESS is required for the worker")
	}
	db, err := dbhelper.SetupDB()
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	if db == nil {
		logger.Fatal("DB_HOST is required for the worker")
	}

	rt, err := services.NewRuntime(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up providers", zap.Error(err))
	}
	orchestrators := map[string]tasks.Generator{}
	for name, orchestrator := range rt.Orchestrators {
		orchestrators[name] = orchestrator
	}
	notifier := telegram.New(cfg.TelegramBotToken, cfg.TelegramAdminChatID, logger)
	taskLogger := logger.With(zap.String("component", "worker"))

	redis := asynq.RedisClientOpt{Addr: cfg.BrokerAddress}
	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{tasks.QueueGenerate: 7},
		Logger:      logger.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeGenerateImages, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleGenerateImagesTask(ctx, t, db, orchestrators, notifier, cfg.RequestDeadline, taskLogger)
	})
	mux.HandleFunc(tasks.TypeExpireStaleJobs, func(ctx context.Context, t *asynq.Task) error {
		_, err := tasks.HandleExpireStaleJobsTask(ctx, db, staleJobAge, taskLogger)
		return err
	})

	go runScheduler(redis, logger)
	if err := srv.Run(mux); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
