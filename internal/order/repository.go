package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/storage"
)

const (
	selectOrders = `
		SELECT id, reference, user_id, status, total, shipping_address, order_date, updated_at
		FROM orders`
	selectLines = `
		SELECT oi.id, oi.order_id, oi.book_id, b.title, oi.quantity, oi.price
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id`
)

type Repository struct {
	db storage.Querier
}

func NewRepository(db storage.Querier) *Repository { return &Repository{db: db} }

func (r *Repository) WithTx(tx *sqlx.Tx) *Repository { return &Repository{db: tx} }

// CartLines returns the user's cart lines with current catalog prices.
// A missing cart yields no lines.
func (r *Repository) CartLines(ctx context.Context, userID int64) ([]cartLine, error) {
	var lines []cartLine
	err := sqlx.SelectContext(ctx, r.db, &lines, `
		SELECT ci.cart_id, ci.book_id, b.title, b.price, ci.quantity, b.deleted
		FROM carts c
		JOIN cart_items ci ON ci.cart_id = c.id
		JOIN books b ON b.id = ci.book_id
		WHERE c.user_id = ?
		ORDER BY ci.id`, userID)
	return lines, err
}

func (r *Repository) DeleteCart(ctx context.Context, cartID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id=?`, cartID)
	return err
}

// Insert stores o and its lines, filling in the generated ids.
func (r *Repository) Insert(ctx context.Context, o *Order) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders(reference, user_id, status, total, shipping_address, order_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.Reference, o.UserID, o.Status, o.Total, o.ShippingAddress, o.OrderDate, o.UpdatedAt)
	if err != nil {
		return err
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO order_items(order_id, book_id, quantity, price) VALUES (?, ?, ?, ?)`,
			l.OrderID, l.BookID, l.Quantity, l.Price)
		if err != nil {
			return err
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := sqlx.GetContext(ctx, r.db, &o, selectOrders+` WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("order %d", id)
	}
	if err != nil {
		return nil, err
	}
	if o.Lines, err = r.Lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, with their lines.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	orders := []Order{}
	if err := sqlx.SelectContext(ctx, r.db, &orders,
		selectOrders+` WHERE user_id=? ORDER BY order_date DESC, id DESC`, userID); err != nil {
		return nil, err
	}
	for i := range orders {
		lines, err := r.Lines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (r *Repository) Lines(ctx context.Context, orderID int64) ([]Line, error) {
	lines := []Line{}
	err := sqlx.SelectContext(ctx, r.db, &lines, selectLines+` WHERE oi.order_id=? ORDER BY oi.id`, orderID)
	return lines, err
}

func (r *Repository) Line(ctx context.Context, orderID, lineID int64) (*Line, error) {
	var l Line
	err := sqlx.GetContext(ctx, r.db, &l, selectLines+` WHERE oi.order_id=? AND oi.id=?`, orderID, lineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("order item %d of order %d", lineID, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) SetStatus(ctx context.Context, id int64, st Status, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status=?, updated_at=? WHERE id=?`, st, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFoundf("order %d", id)
	}
	return nil
}
