package service

import (
	"sort"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/pkg/errors"
)

var displayLabels = map[entity.OrderStatus]string{
	entity.OrderStatusConfirmingPayment: "Confirma el pago",
	entity.OrderStatusPending:           "Pendiente",
	entity.OrderStatusPreparing:         "Preparando",
	entity.OrderStatusOnTheWay:          "En camino",
	entity.OrderStatusAwaitingCustomer:  "Esperando confirmación",
	entity.OrderStatusDelivered:         "Entregado",
	entity.OrderStatusCancelled:         "Cancelado",
	entity.OrderStatusRejected:          "Rechazado",
}

// Sort priority only; business rules never look at it.
var displayPriority = map[entity.OrderStatus]float64{
	entity.OrderStatusConfirmingPayment: 0,
	entity.OrderStatusPending:           1,
	entity.OrderStatusPreparing:         2,
	entity.OrderStatusOnTheWay:          3,
	entity.OrderStatusAwaitingCustomer:  3.5,
	entity.OrderStatusDelivered:         4,
	entity.OrderStatusCancelled:         5,
	entity.OrderStatusRejected:          6,
}

const unknownPriority = 99

// DisplayStates lists every known display state in board order.
func DisplayStates() []entity.OrderStatus {
	return []entity.OrderStatus{
		entity.OrderStatusConfirmingPayment,
		entity.OrderStatusPending,
		entity.OrderStatusPreparing,
		entity.OrderStatusOnTheWay,
		entity.OrderStatusAwaitingCustomer,
		entity.OrderStatusDelivered,
		entity.OrderStatusCancelled,
		entity.OrderStatusRejected,
	}
}

// DisplayState derives what staff sees from the persisted status and the
// confirmation flags. A courier-confirmed delivery the customer has not yet
// acknowledged is shown as waiting for the customer.
func DisplayState(o *entity.Order) entity.OrderStatus {
	if o.Status == entity.OrderStatusOnTheWay && o.ConfirmedByCourier && !o.ConfirmedByCustomer {
		return entity.OrderStatusAwaitingCustomer
	}
	return o.Status
}

// Label returns the human label of a display state.
func Label(state entity.OrderStatus) string {
	if label, ok := displayLabels[state]; ok {
		return label
	}
	return string(state)
}

func Priority(state entity.OrderStatus) float64 {
	if p, ok := displayPriority[state]; ok {
		return p
	}
	return unknownPriority
}

func IsTerminal(state entity.OrderStatus) bool {
	switch state {
	case entity.OrderStatusDelivered, entity.OrderStatusCancelled, entity.OrderStatusRejected:
		return true
	}
	return false
}

// MapOrders stamps DisplayState on every order in place.
func MapOrders(orders []*entity.Order) []*entity.Order {
	for _, o := range orders {
		o.DisplayState = DisplayState(o)
	}
	return orders
}

// SortByPriority orders the board by display priority, keeping the backend's
// order between equal states.
func SortByPriority(orders []*entity.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return Priority(DisplayState(orders[i])) < Priority(DisplayState(orders[j]))
	})
}

// Transition describes the backend call and the local effect of a legal action.
type Transition struct {
	Action     entity.OrderAction
	From       entity.OrderStatus
	NextStatus entity.OrderStatus
	// SetsCourierConfirmation is true for confirm_delivered, which only flips
	// confirmado_por_repartidor and leaves the persisted status alone.
	SetsCourierConfirmation bool
}

// AllowedActions lists the actions staff may take on the order right now.
func AllowedActions(o *entity.Order) []entity.OrderAction {
	switch state := DisplayState(o); state {
	case entity.OrderStatusPending:
		return []entity.OrderAction{entity.OrderActionPrepare}
	case entity.OrderStatusPreparing:
		return []entity.OrderAction{entity.OrderActionDispatch}
	case entity.OrderStatusOnTheWay, entity.OrderStatusAwaitingCustomer:
		if !o.ConfirmedByCourier {
			return []entity.OrderAction{entity.OrderActionConfirmDelivered}
		}
	}
	return nil
}

func IsAllowed(o *entity.Order, action entity.OrderAction) bool {
	for _, a := range AllowedActions(o) {
		if a == action {
			return true
		}
	}
	return false
}

// Resolve validates action against the order and returns the transition to
// perform. An illegal action yields an INVALID_ACTION error and must not reach
// the backend.
func Resolve(o *entity.Order, action entity.OrderAction) (Transition, error) {
	state := DisplayState(o)
	if !IsAllowed(o, action) {
		return Transition{}, errors.InvalidAction(string(action), string(state))
	}

	t := Transition{Action: action, From: state, NextStatus: o.Status}
	switch action {
	case entity.OrderActionPrepare:
		t.NextStatus = entity.OrderStatusPreparing
	case entity.OrderActionDispatch:
		t.NextStatus = entity.OrderStatusOnTheWay
	case entity.OrderActionConfirmDelivered:
		t.SetsCourierConfirmation = true
	}
	return t, nil
}

// Apply returns a copy of o with the transition applied locally.
func Apply(o *entity.Order, t Transition) *entity.Order {
	next := o.Clone()
	next.Status = t.NextStatus
	if t.SetsCourierConfirmation {
		next.ConfirmedByCourier = true
	}
	next.DisplayState = DisplayState(next)
	return next
}

// ParseAction maps a request path segment to an action.
func ParseAction(raw string) (entity.OrderAction, bool) {
	switch a := entity.OrderAction(raw); a {
	case entity.OrderActionPrepare, entity.OrderActionDispatch, entity.OrderActionConfirmDelivered:
		return a, true
	}
	return "", false
}
