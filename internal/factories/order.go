package factories

import (
	"time"

	"github.com/lucsky/cuid"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

type OrderFactory struct{}

// CreateOrder returns an unassigned order created shortly before now.
func (of *OrderFactory) CreateOrder(now time.Time) models.Order {
	created := fake.Time().TimeBetween(now.Add(-45*time.Minute), now)
	return models.Order{
		ID: cuid.New(),
		Restaurant: models.RestaurantRef{
			Name:    fake.Company().Name(),
			Address: createAddress().String(),
		},
		Customer: models.CustomerRef{
			ID:      cuid.New(),
			Name:    fake.Person().Name(),
			Address: createAddress().String(),
		},
		OrderStatus: models.OrderStatusReady,
		TotalAmount: fake.Float64(2, 150, 1500),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

// CreateAssignedOrder returns an order already carried by partnerID.
func (of *OrderFactory) CreateAssignedOrder(now time.Time, partnerID string, status models.OrderStatus) models.Order {
	o := of.CreateOrder(now)
	o.DeliveryPartner = &models.PartnerRef{ID: partnerID}
	o.OrderStatus = status
	return o
}

// CreateDelivered returns a completed delivery stamped at deliveredAt.
func (of *OrderFactory) CreateDelivered(partnerID string, deliveredAt time.Time) models.Order {
	o := of.CreateAssignedOrder(deliveredAt, partnerID, models.OrderStatusDelivered)
	o.CreatedAt = deliveredAt.Add(-30 * time.Minute)
	o.UpdatedAt = deliveredAt
	return o
}
