package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"rikoadmin/internal/usecase"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type restaurantResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type loginResponse struct {
	FirebaseToken string             `json:"firebase_token"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	Restaurant    restaurantResponse `json:"restaurant"`
}

type deviceRequest struct {
	Token     string `json:"token" validate:"required"`
	UserAgent string `json:"user_agent"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	resp := loginResponse{
		FirebaseToken: result.FirebaseToken,
		Restaurant: restaurantResponse{
			ID:   result.Session.RestaurantID,
			Name: result.Session.RestaurantName,
			Role: result.Session.Role,
		},
	}
	if !result.Session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &result.Session.ExpiresAt
	}
	return response.Success(c, resp)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := restaurantID(c)
	if err != nil {
		return response.Error(c, err)
	}

	h.authUseCase.Logout(uid)
	return response.Success(c, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) RegisterDevice(c echo.Context) error {
	uid, err := restaurantID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req deviceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request().UserAgent()
	}

	if err := h.authUseCase.RegisterDevice(c.Request().Context(), uid, req.Token, req.UserAgent); err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, map[string]string{"token": req.Token})
}

func (h *AuthHandler) UnregisterDevice(c echo.Context) error {
	uid, err := restaurantID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.authUseCase.UnregisterDevice(c.Request().Context(), uid, c.Param("token")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Device removed"})
}
