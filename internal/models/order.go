package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type RestaurantRef struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type CustomerRef struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PartnerRef is the assignment reference on an order. The backend sends
// either a bare id or a populated object, so both are accepted.
type PartnerRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (p *PartnerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.ID)
	}
	type plain PartnerRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode delivery partner: %w", err)
	}
	*p = PartnerRef(v)
	return nil
}

type Order struct {
	ID              string        `json:"_id"`
	Restaurant      RestaurantRef `json:"restaurant"`
	Customer        CustomerRef   `json:"customer"`
	OrderStatus     OrderStatus   `json:"orderStatus"`
	DeliveryPartner *PartnerRef   `json:"deliveryPartner,omitempty"`
	TotalAmount     float64       `json:"totalAmount"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// IsAvailable reports whether the order is still waiting for a partner. A
// reference with an empty id counts as no partner.
func (o Order) IsAvailable() bool {
	return o.DeliveryPartner == nil || o.DeliveryPartner.ID == ""
}

func (o Order) IsEnRoute() bool {
	return o.OrderStatus == OrderStatusOnTheWay
}
