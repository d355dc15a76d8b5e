package models

// ClientInfo identifies the wholesale buyer for one order.
type ClientInfo struct {
	Name    string `json:"name"`
	NID     string `json:"nid"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// WholesaleProduct is one finalized line of a wholesale order, carrying
// the hosted image reference produced during batch upload.
type WholesaleProduct struct {
	ProductNumber int     `json:"productNumber"`
	ImageURL      string  `json:"imageUrl"`
	FileID        string  `json:"fileId"`
	Category      string  `json:"category"`
	Quantity      float64 `json:"quantity"`
	QuantityType  string  `json:"quantityType"`
	RawPrice      float64 `json:"rawPrice"`
	Profit        float64 `json:"profit"`
}

// WholesaleOrder is the single aggregated document sent to the wholesale
// backend once every item in a batch has been uploaded. The shippmenttype
// key is the backend's spelling.
type WholesaleOrder struct {
	ClientInfo   ClientInfo         `json:"clientInfo"`
	Products     []WholesaleProduct `json:"products"`
	TotalWeight  float64            `json:"totalWeight"`
	ShipmentType string             `json:"shippmenttype"`
}

// CreatedOrder is the backend's acknowledgement of a stored order.
type CreatedOrder struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}
