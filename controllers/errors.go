package controllers

import (
	"errors"
	"net/http"

	"selfieapi/models"
	"selfieapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	exceptionSuggestion = "Please check network connection, API Key configuration, or see terminal logs for detailed errors"
	analysisDetailLimit = 200
)

// generationError renders the JSON envelope for a failed generation.
func generationError(c echo.Context, logger *zap.Logger, err error) error {
	var (
		validationErr *services.ValidationError
		configErr     *services.ConfigurationError
		aggregateErr  *services.AggregateFailure
		upstreamErr   *services.UpstreamError
		dataErr       *services.DataShapeError
	)
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: validationErr.Message})
	case errors.As(err, &configErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: configErr.Message})
	case errors.As(err, &aggregateErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{
			Error:      aggregateErr.Message,
			Details:    aggregateErr.Details,
			Suggestion: aggregateErr.Suggestion,
			Model:      aggregateErr.Model,
		})
	case errors.As(err, &upstreamErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Image generation failed", Details: upstreamErr.Error()})
	case errors.As(err, &dataErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Image generation failed", Details: dataErr.Reason})
	}
	logger.Error("generation exception", zap.String("request_id", services.RequestIDFrom(c.Request().Context())), zap.Error(err))
	sentry.CaptureException(err)
	return c.JSON(http.StatusInternalServerError, models.ErrorOut{
		Error:      "Exception occurred during image generation",
		Details:    err.Error(),
		Suggestion: exceptionSuggestion,
	})
}

// analysisError renders the JSON envelope for a failed image analysis.
func analysisError(c echo.Context, logger *zap.Logger, err error) error {
	var (
		validationErr *services.ValidationError
		configErr     *services.ConfigurationError
		parseErr      *services.AnalysisParseError
		upstreamErr   *services.UpstreamError
		dataErr       *services.DataShapeError
	)
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: validationErr.Message})
	case errors.As(err, &configErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: configErr.Message})
	case errors.As(err, &parseErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{
			Error:      "Failed to parse analysis result",
			RawText:    parseErr.RawText,
			Suggestion: "The AI response was not in the expected JSON format",
		})
	case errors.As(err, &upstreamErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{
			Error:   "Image analysis failed",
			Details: services.Truncate(upstreamErr.Body, analysisDetailLimit),
		})
	case errors.As(err, &dataErr):
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "No analysis text in response", Details: dataErr.Reason})
	}
	logger.Error("analysis exception", zap.String("request_id", services.RequestIDFrom(c.Request().Context())), zap.Error(err))
	sentry.CaptureException(err)
	return c.JSON(http.StatusInternalServerError, models.ErrorOut{
		Error:   "Exception occurred during image analysis",
		Details: err.Error(),
	})
}
