// Package catalog holds books and categories. Books are soft-deleted: the
// row stays, every read skips it.
package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/money"
)

type Book struct {
	ID          int64           `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Author      string          `db:"author" json:"author"`
	ISBN        string          `db:"isbn" json:"isbn"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Description string          `db:"description" json:"description"`
	CoverImage  string          `db:"cover_image" json:"coverImage"`
	Deleted     bool            `db:"deleted" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
	CategoryIDs []int64         `db:"-" json:"categoryIds"`
}

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// BookInput is what callers supply to create or replace a book.
type BookInput struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	ISBN        string          `json:"isbn"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CoverImage  string          `json:"coverImage"`
	CategoryIDs []int64         `json:"categoryIds"`
}

func (in BookInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return apperr.Validationf("title is required")
	case strings.TrimSpace(in.Author) == "":
		return apperr.Validationf("author is required")
	case strings.TrimSpace(in.ISBN) == "":
		return apperr.Validationf("isbn is required")
	case in.Price.IsNegative():
		return apperr.Validationf("price must not be negative")
	}
	return nil
}

func (in BookInput) apply(b *Book) {
	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.ISBN = strings.TrimSpace(in.ISBN)
	b.Price = money.Normalize(in.Price)
	b.Description = in.Description
	b.CoverImage = in.CoverImage
	b.CategoryIDs = dedupe(in.CategoryIDs)
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validationf("category name is required")
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
