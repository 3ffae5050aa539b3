package handler

import (
	"github.com/labstack/echo/v4"

	"rikoadmin/internal/adapter/api/middleware"
	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/usecase"
	"rikoadmin/pkg/errors"
)

var (
	authHandler   *AuthHandler
	orderHandler  *OrderHandler
	chatHandler   *ChatHandler
	reportHandler *ReportHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	boardUseCase *usecase.OrderBoardUseCase,
	chatUseCase *usecase.ChatUseCase,
	reportUseCase *usecase.ReportUseCase,
	maxUploadSize int64,
) {
	authHandler = NewAuthHandler(authUseCase)
	orderHandler = NewOrderHandler(boardUseCase, reportUseCase)
	chatHandler = NewChatHandler(chatUseCase, boardUseCase, maxUploadSize)
	reportHandler = NewReportHandler(reportUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetOrderHandler() *OrderHandler {
	return orderHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetReportHandler() *ReportHandler {
	return reportHandler
}

func restaurantID(c echo.Context) (string, error) {
	uid, ok := c.Get(middleware.ContextUID).(string)
	if !ok || uid == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}
	return uid, nil
}

func currentSession(c echo.Context) (*entity.Session, error) {
	session, ok := c.Get(middleware.ContextSession).(*entity.Session)
	if !ok || session == nil {
		return nil, errors.Unauthorized("no active session, please log in", nil)
	}
	return session, nil
}
