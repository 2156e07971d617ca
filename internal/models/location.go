package models

type Location struct {
	Lat float64 `json:"lat" parquet:"name=lat,type=DOUBLE"`
	Lng float64 `json:"lng" parquet:"name=lng,type=DOUBLE"`
}

// LocationUpdate is the payload pushed over the realtime channel while a
// partner is en route to the customer.
type LocationUpdate struct {
	OrderID    string   `json:"orderId"`
	CustomerID string   `json:"customerId"`
	Location   Location `json:"location"`
}
