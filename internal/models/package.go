package models

// Package is a customer shipment package tracked by the packages backend.
type Package struct {
	ID           string  `json:"id,omitempty"`
	Code         string  `json:"code"`
	CustomerName string  `json:"customerName"`
	Phone        string  `json:"phone,omitempty"`
	Weight       float64 `json:"weight"`
	Status       string  `json:"status,omitempty"`
	ShipmentWay  string  `json:"shippmentWay,omitempty"`
}
