package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// BackendPinger checks that the REST backend answers.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	backend BackendPinger
}

var healthHandler *HealthHandler

func NewHealthHandler(backend BackendPinger) *HealthHandler {
	return &HealthHandler{
		backend: backend,
	}
}

func SetupHealthHandler(backend BackendPinger) {
	healthHandler = NewHealthHandler(backend)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) CheckBackendHealth(c echo.Context) error {
	if err := h.backend.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "Backend unreachable",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Backend connected",
	})
}
