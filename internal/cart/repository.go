package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/storage"
)

const selectLines = `
	SELECT ci.id, ci.cart_id, c.user_id, ci.book_id, b.title, b.price, ci.quantity,
	       (b.deleted = 0) AS available
	FROM cart_items ci
	JOIN carts c ON c.id = ci.cart_id
	JOIN books b ON b.id = ci.book_id`

type Repository struct {
	db storage.Querier
}

func NewRepository(db storage.Querier) *Repository { return &Repository{db: db} }

func (r *Repository) WithTx(tx *sqlx.Tx) *Repository { return &Repository{db: tx} }

// FindByUser loads the user's cart with its lines, oldest line first.
func (r *Repository) FindByUser(ctx context.Context, userID int64) (*Cart, error) {
	var c Cart
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT id, user_id FROM carts WHERE user_id=?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("cart of user %d", userID)
	}
	if err != nil {
		return nil, err
	}

	c.Lines = []Line{}
	if err := sqlx.SelectContext(ctx, r.db, &c.Lines, selectLines+` WHERE ci.cart_id=? ORDER BY ci.id`, c.ID); err != nil {
		return nil, err
	}
	c.price()
	return &c, nil
}

// EnsureCart returns the id of the user's cart, creating it if needed.
func (r *Repository) EnsureCart(ctx context.Context, userID int64) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO carts(user_id, created_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, time.Now().UTC()); err != nil {
		return 0, err
	}
	var id int64
	err := sqlx.GetContext(ctx, r.db, &id, `SELECT id FROM carts WHERE user_id=?`, userID)
	return id, err
}

// BookAvailable fails with NotFound unless bookID is a live catalog book.
func (r *Repository) BookAvailable(ctx context.Context, bookID int64) error {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n,
		`SELECT COUNT(1) FROM books WHERE id=? AND deleted=0`, bookID); err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFoundf("book %d", bookID)
	}
	return nil
}

// AddQuantity inserts a line or, when the book is already in the cart, adds
// qty to it in the same statement. The line is left untouched when the sum
// would pass MaxLineQuantity.
func (r *Repository) AddQuantity(ctx context.Context, cartID, bookID int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id, book_id, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT(cart_id, book_id)
		DO UPDATE SET quantity = cart_items.quantity + excluded.quantity
		WHERE cart_items.quantity <= ? - excluded.quantity`,
		cartID, bookID, qty, MaxLineQuantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Validationf("quantity of book %d would exceed %d", bookID, MaxLineQuantity)
	}
	return nil
}

func (r *Repository) FindLine(ctx context.Context, lineID int64) (*Line, error) {
	var l Line
	err := sqlx.GetContext(ctx, r.db, &l, selectLines+` WHERE ci.id=?`, lineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("cart item %d", lineID)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) SetQuantity(ctx context.Context, lineID int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity=? WHERE id=?`, qty, lineID)
	if err != nil {
		return err
	}
	return expectOne(res, "cart item %d", lineID)
}

func (r *Repository) DeleteLine(ctx context.Context, lineID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id=?`, lineID)
	if err != nil {
		return err
	}
	return expectOne(res, "cart item %d", lineID)
}

// Delete removes the cart and, by cascade, its lines.
func (r *Repository) Delete(ctx context.Context, cartID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id=?`, cartID)
	if err != nil {
		return err
	}
	return expectOne(res, "cart %d", cartID)
}

func expectOne(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFoundf(format, args...)
	}
	return nil
}
