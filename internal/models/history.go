package models

import "time"

// HistoryRecord is the flattened, export-friendly form of a completed
// delivery.
type HistoryRecord struct {
	OrderID           string  `json:"orderId" parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	PartnerID         string  `json:"partnerId" parquet:"name=partner_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Restaurant        string  `json:"restaurant" parquet:"name=restaurant, type=BYTE_ARRAY, convertedtype=UTF8"`
	RestaurantAddress string  `json:"restaurantAddress" parquet:"name=restaurant_address, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerID        string  `json:"customerId" parquet:"name=customer_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerName      string  `json:"customerName" parquet:"name=customer_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerAddress   string  `json:"customerAddress" parquet:"name=customer_address, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status            string  `json:"status" parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
	TotalAmount       float64 `json:"totalAmount" parquet:"name=total_amount, type=DOUBLE"`
	Earnings          float64 `json:"earnings" parquet:"name=earnings, type=DOUBLE"`
	CreatedAt         int64   `json:"createdAt" parquet:"name=created_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	DeliveredAt       int64   `json:"deliveredAt" parquet:"name=delivered_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
}

// NewHistoryRecord flattens a delivered order. rate is the flat earnings per
// delivery.
func NewHistoryRecord(o Order, partnerID string, rate float64) HistoryRecord {
	if o.DeliveryPartner != nil && o.DeliveryPartner.ID != "" {
		partnerID = o.DeliveryPartner.ID
	}
	return HistoryRecord{
		OrderID:           o.ID,
		PartnerID:         partnerID,
		Restaurant:        o.Restaurant.Name,
		RestaurantAddress: o.Restaurant.Address,
		CustomerID:        o.Customer.ID,
		CustomerName:      o.Customer.Name,
		CustomerAddress:   o.Customer.Address,
		Status:            string(o.OrderStatus),
		TotalAmount:       o.TotalAmount,
		Earnings:          rate,
		CreatedAt:         o.CreatedAt.UnixMilli(),
		DeliveredAt:       o.UpdatedAt.UnixMilli(),
	}
}

func (r HistoryRecord) DeliveredTime() time.Time {
	return time.UnixMilli(r.DeliveredAt).UTC()
}
