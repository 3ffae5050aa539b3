package router

import (
	"github.com/labstack/echo/v4"

	"rikoadmin/internal/adapter/api/handler"
	"rikoadmin/internal/adapter/api/middleware"
	"rikoadmin/internal/infrastructure/ratelimit"
)

// SetupAuthRouter initializes auth and device routes
func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	authHandler := handler.GetAuthHandler()

	// Public routes
	e.POST("/v1/auth/login", authHandler.Login, middleware.RateLimit(limiter, ratelimit.ActionLogin))

	// Protected routes
	protected := e.Group("/v1")
	protected.Use(authMiddleware.Authenticate)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/devices", authHandler.RegisterDevice)
	protected.DELETE("/devices/:token", authHandler.UnregisterDevice)
}
