package controllers

import (
	"context"
	"net/http"
	"time"

	"selfieapi/identity"
	"selfieapi/models"
	"selfieapi/services"
	"selfieapi/tasks"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Generator runs one generation pipeline end to end.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error)
}

// Analyzer extracts location, outfit and pose from an image.
type Analyzer interface {
	Analyze(ctx context.Context, image string) (*services.ImageAnalysis, error)
}

// Dependencies is everything the routes need. Nil DB, Storage, Jobs or Identities disable the routes
// that depend on them.
type Dependencies struct {
	DB            *gorm.DB
	Orchestrators map[string]Generator
	Analyzer      Analyzer
	Storage       services.AWSServiceProvider
	URLCache      services.URLCacheServiceProvider
	BucketName    string
	Jobs          tasks.Enqueuer
	Identities    identity.Store

	RequestDeadline time.Duration
	Logger          *zap.Logger
}

func SetupServer(deps Dependencies) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	v := validator.New()
	v.RegisterValidation("pipeline", models.ValidatePipeline)
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", deps.DB)
			return next(c)
		}
	})
	e.Use(RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit("25M"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	timed := api.Group("", RequestDeadline(deps.RequestDeadline))
	generateController := GenerateController{Orchestrators: deps.Orchestrators, Logger: logger.With(zap.String("component", "generate"))}
	generateController.GenerateRoutes(timed)

	analyzeController := AnalyzeController{Analyzer: deps.Analyzer, Logger: logger.With(zap.String("component", "analyze"))}
	analyzeController.AnalyzeRoutes(timed)

	assetsController := AssetsController{
		Storage:    deps.Storage,
		URLCache:   deps.URLCache,
		BucketName: deps.BucketName,
		Logger:     logger.With(zap.String("component", "assets")),
	}
	assetsController.LocationRoutes(api.Group("/locations"))
	assetsController.OutfitRoutes(api.Group("/outfits"))

	jobsController := JobsController{Queue: deps.Jobs, Logger: logger.With(zap.String("component", "jobs"))}
	jobsController.JobRoutes(api.Group("/jobs"))

	identitiesController := IdentitiesController{Store: deps.Identities, Logger: logger.With(zap.String("component", "identities"))}
	identitiesController.IdentityRoutes(api.Group("/identities"))

	return e
}
