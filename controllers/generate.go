package controllers

import (
	"net/http"

	"selfieapi/models"
	"selfieapi/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type GenerateController struct {
	Orchestrators map[string]Generator
	Logger        *zap.Logger
}

func (controller *GenerateController) GenerateRoutes(g *echo.Group) {
	g.POST("/generate", controller.Generate(services.ProviderGemini))
	g.POST("/generate-byteplus", controller.Generate(services.ProviderBytePlus))
}

// Generate answers with four images for a selfie and a prompt using the named pipeline.
func (controller *GenerateController) Generate(pipeline string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.GenerationRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
		}
		if err := c.Validate(req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Missing required parameters: selfie and prompt"})
		}
		orchestrator, ok := controller.Orchestrators[pipeline]
		if !ok || orchestrator == nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Generation pipeline " + pipeline + " is not configured"})
		}

		resp, err := orchestrator.Generate(c.Request().Context(), req)
		if err != nil {
			return generationError(c, controller.Logger, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
