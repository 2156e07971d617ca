package models

type Incentive struct {
	ID          string  `json:"_id"`
	Type        string  `json:"type"` // "daily" or "weekly"
	Target      float64 `json:"target"`
	Reward      float64 `json:"reward"`
	StartTime   string  `json:"startTime,omitempty"` // "HH:MM" local clock
	EndTime     string  `json:"endTime,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       string  `json:"color,omitempty"`
}

// DeliveryStats is derived from the delivery history on every fetch and is
// never patched in place.
type DeliveryStats struct {
	TodayDeliveries int     `json:"todayDeliveries"`
	WeekDeliveries  int     `json:"weekDeliveries"`
	MonthDeliveries int     `json:"monthDeliveries"`
	TodayEarnings   float64 `json:"todayEarnings"`
	MonthEarnings   float64 `json:"monthEarnings"`
	AverageRating   float64 `json:"averageRating"`
	ActiveOrders    int     `json:"activeOrders"`
	TotalDeliveries int     `json:"totalDeliveries"`
}
