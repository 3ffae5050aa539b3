package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/internal/infrastructure/ratelimit"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

const (
	fileMessageContent = "Archivo enviado"
	mapsURLPrefix      = "https://www.google.com/maps?q="
	defaultHistorySize = 100
	maxHistorySize     = 500
)

// ChatUseCase sends restaurant messages into an order's chat. Messages are
// written to the realtime store, which assigns their timestamps.
type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	storage     FileStorage
	rateLimiter RateLimiter
}

func NewChatUseCase(chatRepo repository.ChatRepository, storage FileStorage, rateLimiter RateLimiter) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		storage:     storage,
		rateLimiter: rateLimiter,
	}
}

func (uc *ChatUseCase) SendText(ctx context.Context, restaurantID, orderID, content string) (*entity.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.Validation("message content cannot be empty", nil)
	}
	if err := uc.allow(restaurantID, ratelimit.ActionSendMessage); err != nil {
		return nil, err
	}

	return uc.append(ctx, restaurantID, orderID, entity.MessageTypeText, content, "")
}

// SendLocation shares coords ("lat,lng") as a maps link.
func (uc *ChatUseCase) SendLocation(ctx context.Context, restaurantID, orderID, coords string) (*entity.ChatMessage, error) {
	coords = strings.ReplaceAll(strings.TrimSpace(coords), " ", "")
	if coords == "" {
		return nil, errors.Validation("location coordinates are required", nil)
	}
	if err := uc.allow(restaurantID, ratelimit.ActionSendMessage); err != nil {
		return nil, err
	}

	return uc.append(ctx, restaurantID, orderID, entity.MessageTypeLocation, mapsURLPrefix+coords, "")
}

// SendFile uploads file and posts it to the chat as an image message. The
// upload is removed again if the message cannot be written.
func (uc *ChatUseCase) SendFile(ctx context.Context, restaurantID, orderID, fileName, contentType string, file io.Reader) (*entity.ChatMessage, error) {
	if !isAttachmentType(contentType) {
		return nil, errors.Validation(fmt.Sprintf("file type %q is not allowed", contentType), nil)
	}
	if err := uc.allow(restaurantID, ratelimit.ActionUploadFile); err != nil {
		return nil, err
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.BadRequest("order ID is required", nil)
	}

	url, err := uc.storage.UploadChatFile(ctx, orderID, fileName, contentType, file)
	if err != nil {
		return nil, errors.Network("failed to upload file", err)
	}

	msg, err := uc.append(ctx, restaurantID, orderID, entity.MessageTypeImage, fileMessageContent, url)
	if err != nil {
		if delErr := uc.storage.DeleteFile(ctx, url); delErr != nil {
			logger.Warn("Failed to remove orphaned chat upload %s: %v", url, delErr)
		}
		return nil, err
	}
	return msg, nil
}

// History returns the last limit messages of the order, oldest first.
func (uc *ChatUseCase) History(ctx context.Context, orderID string, limit int) ([]*entity.ChatMessage, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.BadRequest("order ID is required", nil)
	}
	if limit <= 0 {
		limit = defaultHistorySize
	}
	if limit > maxHistorySize {
		limit = maxHistorySize
	}
	return uc.chatRepo.ListMessages(ctx, orderID, limit)
}

func (uc *ChatUseCase) append(ctx context.Context, restaurantID, orderID string, typ entity.MessageType, content, imageURL string) (*entity.ChatMessage, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.BadRequest("order ID is required", nil)
	}

	msg := &entity.ChatMessage{
		OrderID:    orderID,
		SenderID:   restaurantID,
		SenderType: entity.SenderRestaurant,
		Type:       typ,
		Content:    content,
		ImageURL:   imageURL,
	}
	if err := uc.chatRepo.Append(ctx, msg); err != nil {
		return nil, err
	}

	logger.Debug("Chat message %s (%s) sent to order %s", msg.ID, typ, orderID)
	return msg, nil
}

func (uc *ChatUseCase) allow(restaurantID, action string) error {
	if uc.rateLimiter == nil {
		return nil
	}
	if ok, retryIn := uc.rateLimiter.Allow(restaurantID, action); !ok {
		return errors.TooManyRequests(fmt.Sprintf("too many requests, try again in %d seconds", int(retryIn.Seconds())+1))
	}
	return nil
}

func isAttachmentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return strings.HasPrefix(contentType, "image/") || contentType == "application/pdf"
}
