package router

import (
	"github.com/labstack/echo/v4"

	"rikoadmin/internal/adapter/api/handler"
	"rikoadmin/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up the staff event stream. The handshake carries
// the ID token as ?token= since browsers cannot set headers on it.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/ws", wsHandler.HandleWebSocket, authMiddleware.Authenticate)
}
