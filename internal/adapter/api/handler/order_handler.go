package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/service"
	"rikoadmin/internal/infrastructure/export"
	"rikoadmin/internal/usecase"
	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/response"
)

type OrderHandler struct {
	boardUseCase  *usecase.OrderBoardUseCase
	reportUseCase *usecase.ReportUseCase
}

func NewOrderHandler(boardUseCase *usecase.OrderBoardUseCase, reportUseCase *usecase.ReportUseCase) *OrderHandler {
	return &OrderHandler{
		boardUseCase:  boardUseCase,
		reportUseCase: reportUseCase,
	}
}

type orderView struct {
	*entity.Order
	DisplayState   entity.OrderStatus   `json:"display_state"`
	DisplayLabel   string               `json:"display_label"`
	AllowedActions []entity.OrderAction `json:"allowed_actions"`
}

func newOrderView(o *entity.Order) orderView {
	state := service.DisplayState(o)
	actions := service.AllowedActions(o)
	if actions == nil {
		actions = []entity.OrderAction{}
	}
	return orderView{
		Order:          o,
		DisplayState:   state,
		DisplayLabel:   service.Label(state),
		AllowedActions: actions,
	}
}

type actionResponse struct {
	Order   orderView `json:"order"`
	Applied bool      `json:"applied"`
}

// board makes sure the restaurant's board runs and returns its id.
func (h *OrderHandler) board(c echo.Context) (string, error) {
	session, err := currentSession(c)
	if err != nil {
		return "", err
	}
	if err := h.boardUseCase.Open(session); err != nil {
		return "", err
	}
	return session.RestaurantID, nil
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	rid, err := h.board(c)
	if err != nil {
		return response.Error(c, err)
	}

	filter, err := parseOrderFilter(c)
	if err != nil {
		return response.Error(c, err)
	}

	orders, err := h.boardUseCase.Orders(rid, filter)
	if err != nil {
		return response.Error(c, err)
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	return response.List(c, views, len(views))
}

func (h *OrderHandler) ListClientLabels(c echo.Context) error {
	rid, err := h.board(c)
	if err != nil {
		return response.Error(c, err)
	}

	labels, err := h.boardUseCase.ClientLabels(rid)
	if err != nil {
		return response.Error(c, err)
	}
	if labels == nil {
		labels = []string{}
	}
	return response.List(c, labels, len(labels))
}

func (h *OrderHandler) PerformAction(c echo.Context) error {
	rid, err := h.board(c)
	if err != nil {
		return response.Error(c, err)
	}

	action, ok := service.ParseAction(c.Param("action"))
	if !ok {
		return response.Error(c, errors.BadRequest(fmt.Sprintf("unknown action %q", c.Param("action")), nil))
	}

	result, err := h.boardUseCase.PerformAction(c.Request().Context(), rid, c.Param("id"), action)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, actionResponse{
		Order:   newOrderView(result.Order),
		Applied: result.Applied,
	})
}

func (h *OrderHandler) DownloadInvoice(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return response.Error(c, err)
	}

	orderID := c.Param("id")
	var buf bytes.Buffer
	if err := h.reportUseCase.Invoice(c.Request().Context(), session, orderID, &buf); err != nil {
		return response.Error(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.InvoiceFileName(orderID)))
	return c.Blob(http.StatusOK, export.InvoiceMIME, buf.Bytes())
}

func parseOrderFilter(c echo.Context) (service.OrderFilter, error) {
	filter := service.OrderFilter{
		State:  entity.OrderStatus(c.QueryParam("estado")),
		Search: c.QueryParam("q"),
		Client: c.QueryParam("cliente"),
		Date:   c.QueryParam("fecha"),
	}

	if filter.Date != "" {
		if _, err := time.Parse(time.DateOnly, filter.Date); err != nil {
			return filter, errors.BadRequest("fecha must be formatted as YYYY-MM-DD", err)
		}
	}

	var err error
	if filter.MinTotal, err = parseAmount(c.QueryParam("min")); err != nil {
		return filter, errors.BadRequest("min must be a number", err)
	}
	if filter.MaxTotal, err = parseAmount(c.QueryParam("max")); err != nil {
		return filter, errors.BadRequest("max must be a number", err)
	}
	return filter, nil
}

func parseAmount(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
