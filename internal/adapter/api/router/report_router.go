package router

import (
	"github.com/labstack/echo/v4"

	"rikoadmin/internal/adapter/api/handler"
	"rikoadmin/internal/adapter/api/middleware"
	"rikoadmin/internal/infrastructure/ratelimit"
)

func SetupReportRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	reportHandler := handler.GetReportHandler()

	protected := e.Group("/v1")
	protected.Use(authMiddleware.Authenticate)
	protected.Use(authMiddleware.RequireSession)
	protected.Use(middleware.RateLimit(limiter, ratelimit.ActionAPI))

	protected.GET("/reports/orders.xlsx", reportHandler.ExportOrders)
	protected.GET("/reports/summary", reportHandler.GetSummary)
	protected.GET("/dashboard", reportHandler.GetDashboard)
	protected.GET("/clients", reportHandler.ListClients)
}
