package entity

import (
	"encoding/json"
	"strings"
)

// ClientRef is the customer attached to an order. The backend sends it either
// populated or as a bare id.
type ClientRef struct {
	ID       string `json:"_id"`
	Name     string `json:"nombre"`
	LastName string `json:"apellido"`
	IDNumber string `json:"cedula,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"telefono,omitempty"`
}

func (c *ClientRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ClientRef{}
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*c = ClientRef{ID: id}
		return nil
	}
	type plain ClientRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = ClientRef(v)
	return nil
}

// Populated reports whether the backend sent more than the id.
func (c ClientRef) Populated() bool {
	return c.Name != "" || c.LastName != ""
}

func (c ClientRef) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.LastName)
}

// ClientSummary is one entry of the restaurant's client listing.
type ClientSummary struct {
	Client      ClientRef `json:"cliente"`
	OrdersCount int       `json:"totalPedidos,omitempty"`
}
