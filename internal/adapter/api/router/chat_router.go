package router

import (
	"github.com/labstack/echo/v4"

	"rikoadmin/internal/adapter/api/handler"
	"rikoadmin/internal/adapter/api/middleware"
)

// SetupChatRouter sets up the order chat routes (excluding WebSocket).
// Message and upload limits are applied by the chat use case.
func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	chatHandler := handler.GetChatHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.GET("/:orderId/messages", chatHandler.GetMessages)
	chats.POST("/:orderId/messages", chatHandler.SendMessage)
	chats.POST("/:orderId/files", chatHandler.UploadFile)

	// Marks which chat staff has open so its messages are not alerted
	chats.PUT("/:orderId/active", chatHandler.OpenChat)
	chats.DELETE("/:orderId/active", chatHandler.CloseChat)
}
