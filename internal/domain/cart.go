package domain

import "time"

// CartItem is one product line in a session's cart. Rows are keyed by
// (session_id, product_id); quantity never drops to zero, the row is
// removed instead.
type CartItem struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// CartLine is a cart item joined with its product for display.
type CartLine struct {
	CartItem
	Price      float64 `json:"price"`
	ImageURL   string  `json:"image_url"`
	TotalPrice float64 `json:"total_price"`
}
