package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rikoadmin/internal/domain/entity"
)

func amount(v float64) *float64 { return &v }

func TestDerivedTotal(t *testing.T) {
	tests := []struct {
		name  string
		order entity.Order
		want  float64
	}{
		{"total only", entity.Order{Total: 12.5}, 12.5},
		{"change ignored without second payment", entity.Order{Total: 10, Change: 3}, 10},
		{"second payment minus change", entity.Order{Total: 10, Total2: amount(5), Change: 3}, 12},
		{"no float drift", entity.Order{Total: 0.1, Total2: amount(0.2)}, 0.3},
		{"half rounds away from zero", entity.Order{Total: 1.005}, 1.01},
		{"negative half rounds away from zero", entity.Order{Total: 0, Total2: amount(0), Change: 1.005}, -1.01},
		{"below half rounds down", entity.Order{Total: 2.344}, 2.34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.order
			assert.Equal(t, tt.want, DerivedTotal(&o))
		})
	}
}

func TestClientIndex_Label(t *testing.T) {
	idx := NewClientIndex([]*entity.ClientSummary{
		{Client: entity.ClientRef{ID: "c1", Name: "Ana", LastName: "Pérez", IDNumber: "0912345678"}},
		{Client: entity.ClientRef{ID: "c2", Name: "Luis"}},
		nil,
	})

	assert.Equal(t, "Ana Pérez - 0912345678", idx.Label(entity.ClientRef{ID: "c1"}))
	assert.Equal(t, "Luis", idx.Label(entity.ClientRef{ID: "c2"}))
	assert.Equal(t, "Marta Ríos", idx.Label(entity.ClientRef{ID: "c9", Name: "Marta", LastName: "Ríos"}))
	assert.Equal(t, "Cliente no encontrado", idx.Label(entity.ClientRef{ID: "c9"}))
}

func TestBuildRows(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	orders := []*entity.Order{
		{ID: "o1", Status: entity.OrderStatusDelivered, Total: 14, PaymentMethod: "efectivo", CreatedAt: created, Client: entity.ClientRef{ID: "c1"}},
		{ID: "o2", Status: entity.OrderStatusCancelled, Total: 3, Client: entity.ClientRef{ID: "missing"}},
		{ID: "o3", Status: entity.OrderStatusOnTheWay, ConfirmedByCourier: true, Total: 8, PaymentMethod: "transferencia", CreatedAt: created},
	}
	idx := NewClientIndex([]*entity.ClientSummary{{Client: entity.ClientRef{ID: "c1", Name: "Ana", IDNumber: "V1"}}})

	rows := BuildRows(orders, idx)

	require.Len(t, rows, 3)
	assert.Equal(t, ReportRow{
		OrderID: "o1", State: "Entregado", Client: "Ana - V1", Total: 14, PaymentMethod: "Efectivo", Date: "01/05/2024 12:00:00",
	}, rows[0])
	assert.Equal(t, "Cancelado", rows[1].State)
	assert.Equal(t, "Cliente no encontrado", rows[1].Client)
	assert.Equal(t, "Método no disponible", rows[1].PaymentMethod)
	assert.Equal(t, "No disponible", rows[1].Date)
	assert.Equal(t, string(entity.OrderStatusAwaitingCustomer), rows[2].State)
	assert.Len(t, rows[0].Values(), len(OrderColumns))
}

func TestBuildSummary(t *testing.T) {
	orders := []*entity.Order{
		{Status: entity.OrderStatusDelivered, Total: 10, PaymentMethod: "efectivo"},
		{Status: entity.OrderStatusPending, Total: 5, PaymentMethod: entity.PaymentMethodCredit},
		{Status: entity.OrderStatusCancelled, Total: 100, PaymentMethod: "efectivo"},
		{Status: entity.OrderStatusDelivered, Total: 0.1, Total2: amount(0.2), PaymentMethod: "transferencia"},
	}

	assert.Equal(t, Summary{TotalOrders: 3, TotalIncome: 10.3, AverageIncome: 3.43}, BuildSummary(orders))
	assert.Equal(t, Summary{}, BuildSummary(nil))
}

func TestBuildDebtors(t *testing.T) {
	orders := []*entity.Order{
		{ID: "o1", Status: entity.OrderStatusDelivered, Total: 7.5, PaymentMethod: entity.PaymentMethodCredit, Client: entity.ClientRef{Name: "Luis", IDNumber: "V2"}},
		{ID: "o2", Status: entity.OrderStatusCancelled, Total: 9, PaymentMethod: entity.PaymentMethodCredit},
		{ID: "o3", Status: entity.OrderStatusDelivered, Total: 4, PaymentMethod: "credito"},
	}

	debtors := BuildDebtors(orders, NewClientIndex(nil))

	require.Len(t, debtors, 1)
	assert.Equal(t, DebtorRow{OrderID: "o1", Client: "Luis - V2", AmountOwed: 7.5}, debtors[0])
	assert.Equal(t, []string{"Número de Orden", "Cliente", "Total Adeudado"}, DebtorColumns)
}

func TestPaymentLabel(t *testing.T) {
	assert.Equal(t, "Efectivo", PaymentLabel("efectivo"))
	assert.Equal(t, "Método no disponible", PaymentLabel("  "))
}
