package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rikoadmin/internal/domain/entity"
	"rikoadmin/pkg/errors"
)

func TestDisplayState(t *testing.T) {
	statuses := append(DisplayStates(), entity.OrderStatus("Archivado"))

	for _, status := range statuses {
		for _, courier := range []bool{false, true} {
			for _, customer := range []bool{false, true} {
				o := &entity.Order{Status: status, ConfirmedByCourier: courier, ConfirmedByCustomer: customer}

				want := status
				if status == entity.OrderStatusOnTheWay && courier && !customer {
					want = entity.OrderStatusAwaitingCustomer
				}
				assert.Equal(t, want, DisplayState(o), "status=%q courier=%v customer=%v", status, courier, customer)
			}
		}
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		state entity.OrderStatus
		want  string
	}{
		{entity.OrderStatusConfirmingPayment, "Confirma el pago"},
		{entity.OrderStatusPreparing, "Preparando"},
		{entity.OrderStatusAwaitingCustomer, "Esperando confirmación"},
		{entity.OrderStatusRejected, "Rechazado"},
		{entity.OrderStatus("Archivado"), "Archivado"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.state))
	}
}

func TestPriority(t *testing.T) {
	states := DisplayStates()
	for i := 1; i < len(states); i++ {
		assert.Less(t, Priority(states[i-1]), Priority(states[i]), "%q should sort before %q", states[i-1], states[i])
	}
	assert.Equal(t, 3.5, Priority(entity.OrderStatusAwaitingCustomer))
	assert.Equal(t, float64(unknownPriority), Priority("Archivado"))
}

func TestSortByPriority_IsStable(t *testing.T) {
	orders := []*entity.Order{
		{ID: "a", Status: entity.OrderStatusDelivered},
		{ID: "b", Status: entity.OrderStatusPending},
		{ID: "c", Status: "Archivado"},
		{ID: "d", Status: entity.OrderStatusOnTheWay, ConfirmedByCourier: true},
		{ID: "e", Status: entity.OrderStatusPending},
		{ID: "f", Status: entity.OrderStatusOnTheWay},
		{ID: "g", Status: entity.OrderStatusConfirmingPayment},
		{ID: "h", Status: entity.OrderStatusPending},
	}

	SortByPriority(orders)

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"g", "b", "e", "h", "f", "d", "a", "c"}, ids)
}

func TestIsTerminal(t *testing.T) {
	for _, state := range DisplayStates() {
		want := state == entity.OrderStatusDelivered || state == entity.OrderStatusCancelled || state == entity.OrderStatusRejected
		assert.Equal(t, want, IsTerminal(state), string(state))
	}
}

func TestAllowedActions(t *testing.T) {
	tests := []struct {
		name  string
		order entity.Order
		want  []entity.OrderAction
	}{
		{"confirming payment", entity.Order{Status: entity.OrderStatusConfirmingPayment}, nil},
		{"pending", entity.Order{Status: entity.OrderStatusPending}, []entity.OrderAction{entity.OrderActionPrepare}},
		{"preparing", entity.Order{Status: entity.OrderStatusPreparing}, []entity.OrderAction{entity.OrderActionDispatch}},
		{"on the way", entity.Order{Status: entity.OrderStatusOnTheWay}, []entity.OrderAction{entity.OrderActionConfirmDelivered}},
		{"courier confirmed", entity.Order{Status: entity.OrderStatusOnTheWay, ConfirmedByCourier: true}, nil},
		{"persisted awaiting without courier", entity.Order{Status: entity.OrderStatusAwaitingCustomer}, []entity.OrderAction{entity.OrderActionConfirmDelivered}},
		{"delivered", entity.Order{Status: entity.OrderStatusDelivered}, nil},
		{"cancelled", entity.Order{Status: entity.OrderStatusCancelled}, nil},
		{"rejected", entity.Order{Status: entity.OrderStatusRejected}, nil},
		{"unknown", entity.Order{Status: "Archivado"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.order
			assert.Equal(t, tt.want, AllowedActions(&o))
		})
	}
}

func TestResolve(t *testing.T) {
	pending := &entity.Order{ID: "o1", Status: entity.OrderStatusPending}
	tr, err := Resolve(pending, entity.OrderActionPrepare)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, tr.From)
	assert.Equal(t, entity.OrderStatusPreparing, tr.NextStatus)
	assert.False(t, tr.SetsCourierConfirmation)

	onTheWay := &entity.Order{ID: "o2", Status: entity.OrderStatusOnTheWay}
	tr, err = Resolve(onTheWay, entity.OrderActionConfirmDelivered)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusOnTheWay, tr.NextStatus)
	assert.True(t, tr.SetsCourierConfirmation)

	next := Apply(onTheWay, tr)
	assert.True(t, next.ConfirmedByCourier)
	assert.Equal(t, entity.OrderStatusAwaitingCustomer, next.DisplayState)
	assert.False(t, onTheWay.ConfirmedByCourier)
}

func TestResolve_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		order  *entity.Order
		action entity.OrderAction
	}{
		{"unknown action", &entity.Order{Status: entity.OrderStatusPending}, entity.OrderAction("refund")},
		{"skips a step", &entity.Order{Status: entity.OrderStatusPending}, entity.OrderActionDispatch},
		{"terminal order", &entity.Order{Status: entity.OrderStatusDelivered}, entity.OrderActionPrepare},
		{"courier already confirmed", &entity.Order{Status: entity.OrderStatusOnTheWay, ConfirmedByCourier: true}, entity.OrderActionConfirmDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Resolve(tt.order, tt.action)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.CodeInvalidAction, appErr.Code)
			assert.Equal(t, http.StatusConflict, appErr.Status)
			assert.Equal(t, Transition{}, tr)
		})
	}
}

func TestParseAction(t *testing.T) {
	for _, raw := range []string{"prepare", "dispatch", "confirm_delivered"} {
		action, ok := ParseAction(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, entity.OrderAction(raw), action)
	}

	_, ok := ParseAction("confirm_payment")
	assert.False(t, ok)
}
