package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/infrastructure/export"
	"rikoadmin/internal/usecase"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/response"
)

type ReportHandler struct {
	reportUseCase *usecase.ReportUseCase
}

func NewReportHandler(reportUseCase *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{
		reportUseCase: reportUseCase,
	}
}

func (h *ReportHandler) ExportOrders(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}
	from, to, err := parseRange(c)
	if err != nil {
		return response.Error(c, err)
	}

	var buf bytes.Buffer
	if err := h.reportUseCase.ExportOrders(c.Request().Context(), session, from, to, &buf); err != nil {
		return response.Error(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.WorkbookFileName))
	return c.Blob(http.StatusOK, export.WorkbookMIME, buf.Bytes())
}

func (h *ReportHandler) GetSummary(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}
	from, to, err := parseRange(c)
	if err != nil {
		return response.Error(c, err)
	}

	summary, err := h.reportUseCase.Summary(c.Request().Context(), session, from, to)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summary)
}

func (h *ReportHandler) GetDashboard(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	stats, err := h.reportUseCase.Dashboard(c.Request().Context(), session)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, stats)
}

func (h *ReportHandler) ListClients(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	clients, err := h.reportUseCase.Clients(c.Request().Context(), session, c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}
	if clients == nil {
		clients = []*entity.ClientSummary{}
	}
	return response.List(c, clients, len(clients))
}

// parseRange reads from/to as YYYY-MM-DD in local time. to covers its whole
// day.
func parseRange(c echo.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return from, to, errors.BadRequest("from must be formatted as YYYY-MM-DD", err)
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return from, to, errors.BadRequest("to must be formatted as YYYY-MM-DD", err)
		}
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, errors.BadRequest("to must not be before from", nil)
	}
	return from, to, nil
}
