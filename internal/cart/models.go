// Package cart keeps one shopping cart per user. Adding a book that is
// already in the cart raises that line's quantity instead of adding a line.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/ahinestrog/bookshop/internal/money"
)

// MaxLineQuantity bounds the quantity of a single cart line. The cart_items
// table carries the same limit as a CHECK constraint.
const MaxLineQuantity = 9999

type Cart struct {
	ID     int64           `db:"id" json:"id"`
	UserID int64           `db:"user_id" json:"userId"`
	Lines  []Line          `db:"-" json:"cartItems"`
	Total  decimal.Decimal `db:"-" json:"total"`
}

// Line is one book in a cart. Title and UnitPrice come from the catalog at
// read time; Available is false once the book has been deleted there.
type Line struct {
	ID        int64           `db:"id" json:"id"`
	CartID    int64           `db:"cart_id" json:"-"`
	UserID    int64           `db:"user_id" json:"-"`
	BookID    int64           `db:"book_id" json:"bookId"`
	BookTitle string          `db:"title" json:"bookTitle"`
	UnitPrice decimal.Decimal `db:"price" json:"unitPrice"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Available bool            `db:"available" json:"available"`
	Amount    decimal.Decimal `db:"-" json:"amount"`
}

func (c *Cart) price() {
	amounts := make([]decimal.Decimal, len(c.Lines))
	for i := range c.Lines {
		c.Lines[i].Amount = money.Line(c.Lines[i].UnitPrice, c.Lines[i].Quantity)
		amounts[i] = c.Lines[i].Amount
	}
	c.Total = money.Sum(amounts...)
}
