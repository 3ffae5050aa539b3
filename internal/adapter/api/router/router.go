package router

import (
	"github.com/labstack/echo/v4"

	"rikoadmin/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	SetupHealthRouter(e)
	SetupAuthRouter(e, authMiddleware, limiter)
	SetupOrderRouter(e, authMiddleware, limiter)
	SetupChatRouter(e, authMiddleware, limiter)
	SetupReportRouter(e, authMiddleware, limiter)
}
