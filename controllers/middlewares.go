package controllers

import (
	"context"
	"time"

	"selfieapi/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// RequestID sets X-Request-ID on every response and carries the id in the request context for logging.
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(services.WithRequestID(req.Context(), id)))
		},
	})
}

// RequestDeadline bounds the whole request, provider calls included. d <= 0 disables it.
func RequestDeadline(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if d <= 0 {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// dbFrom returns the relational store, nil when it is not configured.
func dbFrom(c echo.Context) *gorm.DB {
	db, _ := c.Get("__db").(*gorm.DB)
	return db
}
