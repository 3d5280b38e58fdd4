package order

import "github.com/shopspring/decimal"

const (
	RKOrderCreated       = "order.created"
	RKOrderStatusChanged = "order.status_changed"
)

type CreatedPayload struct {
	OrderID   int64           `json:"orderId"`
	Reference string          `json:"reference"`
	UserID    int64           `json:"userId"`
	Total     decimal.Decimal `json:"total"`
	Items     int             `json:"items"`
}

type StatusChangedPayload struct {
	OrderID int64  `json:"orderId"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}
