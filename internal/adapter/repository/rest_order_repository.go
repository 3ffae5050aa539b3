package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/internal/domain/repository"
	"rikoadmin/pkg/errors"
)

type restOrderRepository struct {
	backend *BackendClient
	session *entity.Session
}

// NewRestOrderRepository returns the order API bound to one restaurant session.
func NewRestOrderRepository(backend *BackendClient, session *entity.Session) repository.OrderRepository {
	return &restOrderRepository{
		backend: backend,
		session: session,
	}
}

func (r *restOrderRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]*entity.Order, error) {
	var orders []*entity.Order
	path := "/api/pedido/pedidos/restaurante/" + url.PathEscape(restaurantID)
	if err := r.backend.do(ctx, http.MethodGet, path, r.session.BackendToken, nil, &orders); err != nil {
		return nil, translate(err, "Orders")
	}
	return orders, nil
}

func (r *restOrderRepository) Transition(ctx context.Context, orderID string, action entity.OrderAction) error {
	base := "/api/pedido/pedidos/" + url.PathEscape(orderID)

	var (
		path string
		body interface{}
	)
	switch action {
	case entity.OrderActionPrepare:
		path = base + "/aceptar"
	case entity.OrderActionDispatch:
		path = base + "/recogido"
	case entity.OrderActionConfirmDelivered:
		path = base + "/entregado"
		body = map[string]string{"quien_confirma": "repartidor"}
	default:
		return errors.Validation(fmt.Sprintf("unknown order action %q", action), nil)
	}

	if err := r.backend.do(ctx, http.MethodPut, path, r.session.BackendToken, body, nil); err != nil {
		return translate(err, "Order")
	}
	return nil
}

func (r *restOrderRepository) ListClients(ctx context.Context, restaurantID string) ([]*entity.ClientSummary, error) {
	var clients []*entity.ClientSummary
	path := "/api/pedido/pedidos/clientes/restaurante/" + url.PathEscape(restaurantID)
	if err := r.backend.do(ctx, http.MethodGet, path, r.session.BackendToken, nil, &clients); err != nil {
		return nil, translate(err, "Clients")
	}
	return clients, nil
}

func (r *restOrderRepository) Statistics(ctx context.Context, restaurantID string) (json.RawMessage, error) {
	var stats json.RawMessage
	path := "/api/restaurant/restaurant-estadisticas/" + url.PathEscape(restaurantID)
	if err := r.backend.do(ctx, http.MethodGet, path, r.session.BackendToken, nil, &stats); err != nil {
		return nil, translate(err, "Statistics")
	}
	return stats, nil
}
