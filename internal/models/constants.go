package models

// OrderStatus is the lifecycle stage of an order as reported by the backend.
type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"

	RoleDeliveryPartner = "delivery_partner"

	IncentiveTypeDaily  = "daily"
	IncentiveTypeWeekly = "weekly"

	EventNewDeliveryRequest = "new-delivery-request"
	EventOrderUpdate        = "order-update"
	EventUpdateLocation     = "update-location"
)

// Valid reports whether s is one of the known lifecycle stages.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPreparing, OrderStatusReady, OrderStatusPickedUp, OrderStatusOnTheWay, OrderStatusDelivered:
		return true
	}
	return false
}

// Label is the human readable form used by the console.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPreparing:
		return "Preparing"
	case OrderStatusReady:
		return "Ready for pickup"
	case OrderStatusPickedUp:
		return "Picked up"
	case OrderStatusOnTheWay:
		return "On the way"
	case OrderStatusDelivered:
		return "Delivered"
	}
	return string(s)
}
