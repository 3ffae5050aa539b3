package entity

import (
	"encoding/json"
	"time"
)

// OrderStatus is the status string the REST backend persists for an order.
// The same value space is used for display states.
type OrderStatus string

const (
	OrderStatusConfirmingPayment OrderStatus = "Confirmando pago"
	OrderStatusPending           OrderStatus = "Pendiente"
	OrderStatusPreparing         OrderStatus = "En preparación"
	OrderStatusOnTheWay          OrderStatus = "En camino a entregar"
	OrderStatusAwaitingCustomer  OrderStatus = "Esperando confirmación del cliente"
	OrderStatusDelivered         OrderStatus = "Entregado"
	OrderStatusCancelled         OrderStatus = "Cancelado"
	OrderStatusRejected          OrderStatus = "Rechazado"
)

// OrderAction is a staff action on the order board.
type OrderAction string

const (
	OrderActionPrepare          OrderAction = "prepare"
	OrderActionDispatch         OrderAction = "dispatch"
	OrderActionConfirmDelivered OrderAction = "confirm_delivered"
)

// PaymentMethodCredit marks an order the customer still owes.
const PaymentMethodCredit = "credito_"

type Order struct {
	ID                  string      `json:"_id"`
	Status              OrderStatus `json:"estado"`
	Total               float64     `json:"total"`
	Total2              *float64    `json:"total2"`
	Change              float64     `json:"vuelto"`
	PaymentMethod       string      `json:"metodo_pago"`
	PaymentMethod2      string      `json:"metodo_pago2"`
	DeliveryAddress     string      `json:"direccion_de_entrega"`
	CreatedAt           time.Time   `json:"createdAt"`
	Client              ClientRef   `json:"id_cliente"`
	Items               []OrderItem `json:"detalles"`
	ConfirmedByCourier  bool        `json:"confirmado_por_repartidor"`
	ConfirmedByCustomer bool        `json:"confirmado_por_cliente"`

	// DisplayState is derived locally from Status and the confirmation flags.
	DisplayState OrderStatus `json:"-"`
}

type OrderItem struct {
	Product   ProductRef `json:"id_producto"`
	Quantity  int        `json:"cantidad"`
	UnitPrice *float64   `json:"precio_unitario,omitempty"`
}

// Price is the unit price recorded on the line, falling back to the product's
// current price.
func (i OrderItem) Price() float64 {
	if i.UnitPrice != nil {
		return *i.UnitPrice
	}
	return i.Product.Price
}

func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price()
}

type ProductRef struct {
	ID     string   `json:"_id"`
	Name   string   `json:"nombre"`
	Price  float64  `json:"precio"`
	Images []string `json:"images,omitempty"`
}

// UnmarshalJSON accepts either a populated product object or a bare id.
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*p = ProductRef{ID: id}
		return nil
	}
	type plain ProductRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = ProductRef(v)
	return nil
}

// UnmarshalJSON also understands the older payload shape that carried
// `fecha` and `cliente_id` instead of `createdAt` and `id_cliente`.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	aux := struct {
		*plain
		ID       string     `json:"_id"`
		LegacyID string     `json:"id"`
		Fecha    *time.Time `json:"fecha"`
		ClientID string     `json:"cliente_id"`
	}{plain: (*plain)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.ID = aux.ID
	if o.ID == "" {
		o.ID = aux.LegacyID
	}
	if o.CreatedAt.IsZero() && aux.Fecha != nil {
		o.CreatedAt = *aux.Fecha
	}
	if o.Client.ID == "" && aux.ClientID != "" {
		o.Client.ID = aux.ClientID
	}
	return nil
}

// Clone returns a deep copy safe to mutate.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Total2 != nil {
		t := *o.Total2
		c.Total2 = &t
	}
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	return &c
}
