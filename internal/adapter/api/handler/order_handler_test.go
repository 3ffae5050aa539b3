package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/internal/usecase"
	"rikoadmin/pkg/errors"
)

type orderFixture struct {
	e     *echo.Echo
	repo  *staticOrders
	board *usecase.OrderBoardUseCase
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)
	repo := &staticOrders{orders: []*entity.Order{
		{
			ID: "o1", Status: entity.OrderStatusPending, Total: 20, PaymentMethod: "efectivo", CreatedAt: created,
			Client: entity.ClientRef{ID: "c1", Name: "Ana", LastName: "Pérez"},
		},
		{
			ID: "o2", Status: entity.OrderStatusDelivered, Total: 55, PaymentMethod: "efectivo", CreatedAt: created,
			Client: entity.ClientRef{ID: "c2", Name: "Luis", LastName: "Mora"},
		},
	}}
	factory := func(*entity.Session) repository.OrderRepository { return repo }

	board := usecase.NewOrderBoardUseCase(factory, idleWatcher{}, silentAlerts{}, time.Hour)
	t.Cleanup(board.CloseAll)
	reports := usecase.NewReportUseCase(factory)

	session := &entity.Session{RestaurantID: "r1", RestaurantName: "Riko", BackendToken: "jwt"}
	h := NewOrderHandler(board, reports)

	e := newTestEcho()
	g := e.Group("/v1/orders", asRestaurant(session))
	g.GET("", h.ListOrders)
	g.GET("/clients", h.ListClientLabels)
	g.POST("/:id/actions/:action", h.PerformAction)

	f := &orderFixture{e: e, repo: repo, board: board}
	f.waitForBoard(t, 2)
	return f
}

type orderList struct {
	Items []struct {
		ID             string   `json:"_id"`
		DisplayState   string   `json:"display_state"`
		DisplayLabel   string   `json:"display_label"`
		AllowedActions []string `json:"allowed_actions"`
	} `json:"items"`
	Total int `json:"total"`
}

func (f *orderFixture) list(t *testing.T, query string) orderList {
	t.Helper()
	rec := serve(f.e, http.MethodGet, "/v1/orders"+query, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out orderList
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
	return out
}

// waitForBoard blocks until the first poll has landed.
func (f *orderFixture) waitForBoard(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		rec := serve(f.e, http.MethodGet, "/v1/orders", "")
		if rec.Code != http.StatusOK {
			return false
		}
		var out orderList
		env := envelope{}
		if json.Unmarshal(rec.Body.Bytes(), &env) != nil || json.Unmarshal(env.Data, &out) != nil {
			return false
		}
		return out.Total == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOrderHandler_ListOrdersOpensBoard(t *testing.T) {
	f := newOrderFixture(t)
	assert.True(t, f.board.IsOpen("r1"))

	out := f.list(t, "")
	require.Len(t, out.Items, 2)
	assert.Equal(t, "o1", out.Items[0].ID)
	assert.Equal(t, "Pendiente", out.Items[0].DisplayLabel)
	assert.Equal(t, []string{"prepare"}, out.Items[0].AllowedActions)
	assert.Empty(t, out.Items[1].AllowedActions)
}

func TestOrderHandler_ListOrdersFilters(t *testing.T) {
	f := newOrderFixture(t)

	out := f.list(t, "?estado="+string(entity.OrderStatusDelivered))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "o2", out.Items[0].ID)

	out = f.list(t, "?min=30")
	require.Len(t, out.Items, 1)
	assert.Equal(t, "o2", out.Items[0].ID)

	rec := serve(f.e, http.MethodGet, "/v1/orders?min=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.e, http.MethodGet, "/v1/orders?fecha=10/05/2024", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_ListClientLabels(t *testing.T) {
	f := newOrderFixture(t)

	rec := serve(f.e, http.MethodGet, "/v1/orders/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana Pérez")
	assert.Contains(t, rec.Body.String(), "Luis Mora")
}

func TestOrderHandler_PerformAction(t *testing.T) {
	f := newOrderFixture(t)

	rec := serve(f.e, http.MethodPost, "/v1/orders/o1/actions/prepare", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Order struct {
			DisplayState string `json:"display_state"`
		} `json:"order"`
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
	assert.True(t, out.Applied)
	assert.Equal(t, string(entity.OrderStatusPreparing), out.Order.DisplayState)

	f.repo.mu.Lock()
	assert.Equal(t, []string{"o1:prepare"}, f.repo.transitions)
	f.repo.mu.Unlock()
}

func TestOrderHandler_PerformActionRejected(t *testing.T) {
	f := newOrderFixture(t)

	rec := serve(f.e, http.MethodPost, "/v1/orders/o1/actions/teleport", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.e, http.MethodPost, "/v1/orders/o2/actions/prepare", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.CodeInvalidAction, decode(t, rec).Error.Code)

	rec = serve(f.e, http.MethodPost, "/v1/orders/missing/actions/prepare", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.repo.mu.Lock()
	assert.Empty(t, f.repo.transitions)
	f.repo.mu.Unlock()
}

func TestOrderHandler_NoSession(t *testing.T) {
	board := usecase.NewOrderBoardUseCase(nil, idleWatcher{}, silentAlerts{}, time.Hour)
	h := NewOrderHandler(board, nil)

	e := newTestEcho()
	e.GET("/v1/orders", h.ListOrders)

	rec := serve(e, http.MethodGet, "/v1/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
