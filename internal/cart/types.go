package cart

// LineDTO is one cart line priced from the current product row.
type LineDTO struct {
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName"`
	Brand        string  `json:"brand"`
	Gender       string  `json:"gender"`
	PhotoURL     *string `json:"photoUrl"`
	Quantity     int     `json:"quantity"`
	Stock        int     `json:"stock"`
	UnitPricePLN float64 `json:"unitPricePLN"`
	UnitPriceUSD float64 `json:"unitPriceUSD"`
	LineTotalPLN float64 `json:"lineTotalPLN"`
	LineTotalUSD float64 `json:"lineTotalUSD"`
}

// CartDTO is the priced view of a cart.
type CartDTO struct {
	CartID    string    `json:"cartId"`
	Items     []LineDTO `json:"items"`
	ItemCount int       `json:"itemCount"`
	TotalPLN  float64   `json:"totalPLN"`
	TotalUSD  float64   `json:"totalUSD"`
}
