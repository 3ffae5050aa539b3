package router

import (
	"github.com/labstack/echo/v4"

	"rikoadmin/internal/adapter/api/handler"
	"rikoadmin/internal/adapter/api/middleware"
	"rikoadmin/internal/infrastructure/ratelimit"
)

func SetupOrderRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	orderHandler := handler.GetOrderHandler()

	orders := e.Group("/v1/orders")
	orders.Use(authMiddleware.Authenticate)
	orders.Use(authMiddleware.RequireSession)
	orders.Use(middleware.RateLimit(limiter, ratelimit.ActionAPI))

	orders.GET("", orderHandler.ListOrders)
	orders.GET("/clients", orderHandler.ListClientLabels)
	orders.POST("/:id/actions/:action", orderHandler.PerformAction)
	orders.GET("/:id/invoice.pdf", orderHandler.DownloadInvoice)
}
