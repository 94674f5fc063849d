package models

// Order is a row in the "orders" sheet, owned by the checkout subsystem.
// This service only ever reads orders (to decide first-order status) and
// appends new ones at intake; it never mutates them.
type Order struct {
	OrderID   string `json:"order_id"`
	Phone     string `json:"phone"`
	Name      string `json:"name,omitempty"`
	Total     int64  `json:"total"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}
