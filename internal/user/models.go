// Package user manages accounts, their roles and password checks.
package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/ahinestrog/bookshop/internal/apperr"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

const minPasswordLen = 8

type User struct {
	ID              int64     `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	FirstName       string    `db:"first_name" json:"firstName"`
	LastName        string    `db:"last_name" json:"lastName"`
	ShippingAddress string    `db:"shipping_address" json:"shippingAddress"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	Roles           []Role    `db:"-" json:"roles"`
}

func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ShippingAddress string `json:"shippingAddress"`
}

func (in *RegisterInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
}

func (in RegisterInput) Validate() error {
	if _, err := mail.ParseAddress(in.Email); err != nil || strings.ContainsAny(in.Email, "<> ") {
		return apperr.Validationf("invalid email %q", in.Email)
	}
	if len(in.Password) < minPasswordLen {
		return apperr.Validationf("password must have at least %d characters", minPasswordLen)
	}
	if in.FirstName == "" || in.LastName == "" {
		return apperr.Validationf("first and last name are required")
	}
	return nil
}
