package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/usecase"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/response"
)

type ChatHandler struct {
	chatUseCase   *usecase.ChatUseCase
	boardUseCase  *usecase.OrderBoardUseCase
	maxUploadSize int64
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, boardUseCase *usecase.OrderBoardUseCase, maxUploadSize int64) *ChatHandler {
	return &ChatHandler{
		chatUseCase:   chatUseCase,
		boardUseCase:  boardUseCase,
		maxUploadSize: maxUploadSize,
	}
}

type sendMessageRequest struct {
	Type    string `json:"type" validate:"omitempty,oneof=text location"`
	Content string `json:"content" validate:"required_unless=Type location"`
	Coords  string `json:"coords" validate:"required_if=Type location"`
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	messages, err := h.chatUseCase.History(c.Request().Context(), c.Param("orderId"), limit)
	if err != nil {
		return response.Error(c, err)
	}
	if messages == nil {
		messages = []*entity.ChatMessage{}
	}
	return response.List(c, messages, len(messages))
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid, err := restaurantID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	orderID := c.Param("orderId")

	var msg *entity.ChatMessage
	if entity.MessageType(req.Type) == entity.MessageTypeLocation {
		msg, err = h.chatUseCase.SendLocation(ctx, uid, orderID, req.Coords)
	} else {
		msg, err = h.chatUseCase.SendText(ctx, uid, orderID, req.Content)
	}
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (h *ChatHandler) UploadFile(c echo.Context) error {
	uid, err := restaurantID(c)
	if err != nil {
		return response.Error(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("No file uploaded", err))
	}
	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxUploadSize/(1024*1024)), nil))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer file.Close()

	msg, err := h.chatUseCase.SendFile(
		c.Request().Context(),
		uid,
		c.Param("orderId"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

// OpenChat marks the order's chat as the one staff is looking at.
func (h *ChatHandler) OpenChat(c echo.Context) error {
	return h.setActive(c, c.Param("orderId"))
}

func (h *ChatHandler) CloseChat(c echo.Context) error {
	return h.setActive(c, "")
}

func (h *ChatHandler) setActive(c echo.Context, orderID string) error {
	uid, err := restaurantID(c)
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.boardUseCase.SetActiveChat(uid, orderID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"active_order_id": orderID})
}
