package models

// CurrencyRate is an exchange rate entry keyed by currency code.
type CurrencyRate struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// ShipmentCost is the per-kilogram cost for one shipment method.
type ShipmentCost struct {
	Way  string  `json:"way"`
	Cost float64 `json:"cost"`
}

// Stock is a stock ledger entry managed by owners and partners.
type Stock struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}
