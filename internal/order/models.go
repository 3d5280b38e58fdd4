// Package order turns carts into orders. Line prices are copied from the
// catalog when the order is placed and never change afterwards.
package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahinestrog/bookshop/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusDelivered Status = "DELIVERED"
)

// ParseStatus accepts a status name in any letter case.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusCompleted, StatusDelivered:
		return st, nil
	}
	return "", apperr.Validationf("unknown order status %q", s)
}

type Order struct {
	ID              int64           `db:"id" json:"id"`
	Reference       string          `db:"reference" json:"reference"`
	UserID          int64           `db:"user_id" json:"userId"`
	Status          Status          `db:"status" json:"status"`
	Total           decimal.Decimal `db:"total" json:"total"`
	ShippingAddress string          `db:"shipping_address" json:"shippingAddress"`
	OrderDate       time.Time       `db:"order_date" json:"orderDate"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
	Lines           []Line          `db:"-" json:"orderItems"`
}

// Line is one book of an order. Price is the line amount, unit price times
// quantity, as it was when the order was placed.
type Line struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"orderId"`
	BookID    int64           `db:"book_id" json:"bookId"`
	BookTitle string          `db:"title" json:"bookTitle"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
}

// cartLine is a cart line priced against the live catalog.
type cartLine struct {
	CartID    int64           `db:"cart_id"`
	BookID    int64           `db:"book_id"`
	Title     string          `db:"title"`
	UnitPrice decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
	Deleted   bool            `db:"deleted"`
}
