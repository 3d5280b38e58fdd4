package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/storage"
)

const selectUsers = `
	SELECT id, email, password_hash, first_name, last_name, shipping_address, created_at
	FROM users`

type Repository struct {
	db storage.Querier
}

func NewRepository(db storage.Querier) *Repository { return &Repository{db: db} }

func (r *Repository) WithTx(tx *sqlx.Tx) *Repository { return &Repository{db: tx} }

// Create inserts u with its roles. A taken email is a Conflict.
func (r *Repository) Create(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users(email, password_hash, first_name, last_name, shipping_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.ShippingAddress, u.CreatedAt)
	if storage.IsUniqueViolation(err) {
		return apperr.Conflictf("email %s already registered", u.Email)
	}
	if err != nil {
		return err
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	for _, role := range u.Roles {
		if err := r.AddRole(ctx, u.ID, role); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) AddRole(ctx context.Context, userID int64, role Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles(user_id, role) VALUES (?, ?) ON CONFLICT DO NOTHING`, userID, role)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, selectUsers+` WHERE id=?`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, selectUsers+` WHERE email=?`, email)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, r.db, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("user %v", arg)
	}
	if err != nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, r.db, &u.Roles,
		`SELECT role FROM user_roles WHERE user_id=? ORDER BY role`, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}
