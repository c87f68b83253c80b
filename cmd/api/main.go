package main

import (
	"context"
	"log"
	"time"

	"selfieapi/config"
	"selfieapi/controllers"
	"selfieapi/dbhelper"
	"selfieapi/identity"
	"selfieapi/services"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	// .env is optional, the real environment wins
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("zap: %s", err)
	}
	defer logger.Sync()

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		Release:          "selfieapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		logger.Fatal("sentry.Init", zap.Error(err))
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	ctx := context.Background()
	rt, err := services.NewRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up providers", zap.Error(err))
	}
	orchestrators := map[string]controllers.Generator{}
	for name, orchestrator := range rt.Orchestrators {
		orchestrators[name] = orchestrator
	}

	db, err := dbhelper.SetupDB()
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	if db == nil {
		logger.Warn("DB_HOST not set, custom assets and jobs are disabled")
	}

	deps := controllers.Dependencies{
		DB:              db,
		Orchestrators:   orchestrators,
		Analyzer:        rt.Analyzer,
		BucketName:      cfg.R2BucketName,
		RequestDeadline: cfg.RequestDeadline,
		Logger:          logger,
	}

	r2 := services.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2AccessKeySecret,
		BucketName:      cfg.R2BucketName,
	}
	if r2.Configured() {
		awsService := &services.AWSService{Config: r2, HTTPClient: services.NewHTTPClient(time.Minute)}
		if err := awsService.InitPresignClient(ctx); err != nil {
			logger.Fatal("failed to initialize AWS provider: S3", zap.Error(err))
		}
		urlCache, err := services.NewURLCacheService(awsService, r2.BucketName, logger)
		if err != nil {
			logger.Fatal("failed to initialize URL cache service", zap.Error(err))
		}
		deps.Storage = awsService
		deps.URLCache = urlCache
	} else {
		logger.Warn("R2 not configured, asset images are stored inline")
	}

	if cfg.BrokerAddress != "" {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.BrokerAddress})
		defer asynqClient.Close()
		deps.Jobs = asynqClient
	}

	identities, err := identity.Open(cfg.IdentityDBPath)
	if err != nil {
		logger.Warn("identity store disabled", zap.String("path", cfg.IdentityDBPath), zap.Error(err))
	} else {
		deps.Identities = identities
	}

	e := controllers.SetupServer(deps)
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	logger.Info("starting api", zap.String("port", cfg.Port))
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
