package controllers

import (
	"net/http"

	"selfieapi/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AnalyzeController struct {
	Analyzer Analyzer
	Logger   *zap.Logger
}

func (controller *AnalyzeController) AnalyzeRoutes(g *echo.Group) {
	g.POST("/analyze-image", controller.AnalyzeImage)
}

func (controller *AnalyzeController) AnalyzeImage(c echo.Context) error {
	var req models.AnalyzeImageIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Missing required parameter: image"})
	}
	if controller.Analyzer == nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Gemini API key not configured"})
	}

	analysis, err := controller.Analyzer.Analyze(c.Request().Context(), req.Image)
	if err != nil {
		return analysisError(c, controller.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    analysis,
		"image":   req.Image,
	})
}
