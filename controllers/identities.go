package controllers

import (
	"errors"
	"net/http"

	"selfieapi/identity"
	"selfieapi/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type IdentitiesController struct {
	Store  identity.Store
	Logger *zap.Logger
}

type IdentityIn struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type IdentityRenameIn struct {
	Name string `json:"name"`
}

func (controller *IdentitiesController) IdentityRoutes(g *echo.Group) {
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if controller.Store == nil {
				return c.JSON(http.StatusServiceUnavailable, models.ErrorOut{Error: "Identity store not configured"})
			}
			return next(c)
		}
	})
	g.GET("", controller.List)
	g.POST("", controller.Add)
	g.PATCH("/:id", controller.Rename)
	g.POST("/:id/primary", controller.SetPrimary)
	g.DELETE("/:id", controller.Delete)
}

func (controller *IdentitiesController) List(c echo.Context) error {
	identities, err := controller.Store.List(c.Request().Context())
	if err != nil {
		return controller.storeError(c, err)
	}
	if identities == nil {
		identities = []identity.Identity{}
	}
	return c.JSON(http.StatusOK, echo.Map{"identities": identities})
}

func (controller *IdentitiesController) Add(c echo.Context) error {
	var req IdentityIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
	}
	created, err := controller.Store.Add(c.Request().Context(), req.Name, req.Image)
	if err != nil {
		return controller.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (controller *IdentitiesController) Rename(c echo.Context) error {
	var req IdentityRenameIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: "Invalid request body"})
	}
	renamed, err := controller.Store.Rename(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return controller.storeError(c, err)
	}
	return c.JSON(http.StatusOK, renamed)
}

func (controller *IdentitiesController) SetPrimary(c echo.Context) error {
	primary, err := controller.Store.SetPrimary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return controller.storeError(c, err)
	}
	return c.JSON(http.StatusOK, primary)
}

func (controller *IdentitiesController) Delete(c echo.Context) error {
	if err := controller.Store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return controller.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (controller *IdentitiesController) storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorOut{Error: err.Error()})
	case errors.Is(err, identity.ErrInvalidName), errors.Is(err, identity.ErrNoImage):
		return c.JSON(http.StatusBadRequest, models.ErrorOut{Error: err.Error()})
	}
	controller.Logger.Error("identity store failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, models.ErrorOut{Error: "Identity store error", Details: err.Error()})
}
