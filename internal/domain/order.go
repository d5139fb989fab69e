package domain

import "time"

// OrderStatusPending is the initial status of every order.
const OrderStatusPending = "pending"

// Order records a checkout for a session. Creation clears the session's
// cart in the same transaction.
type Order struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
