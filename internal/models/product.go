package models

// Product matches the products backend wire schema. The shippmentWay
// spelling is owned by that backend and kept as-is.
type Product struct {
	ID           string  `json:"id"`
	Code         string  `json:"code,omitempty"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Weight       int     `json:"weight"`
	ImageURL     string  `json:"imageUrl"`
	ImageAssetID string  `json:"imageCloudinaryId"`
	UserID       string  `json:"userId"`
	ShipmentWay  string  `json:"shippmentWay"`
	SaleRate     float64 `json:"saleRate,omitempty"`
	IsSelected   bool    `json:"isSelected,omitempty"`
}

// ProductPage is a paginated product listing from the backend.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
