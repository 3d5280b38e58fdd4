package catalog

import (
	"math"
	"strings"

	"github.com/ahinestrog/bookshop/internal/apperr"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// BookFilter narrows a book listing. Each non-empty field is a set of
// accepted values; fields are ANDed together.
type BookFilter struct {
	Titles     []string
	Authors    []string
	CategoryID int64
}

func (f BookFilter) IsEmpty() bool {
	return len(f.Titles) == 0 && len(f.Authors) == 0 && f.CategoryID == 0
}

// Page selects a slice of a sorted listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
	Sort   string
	Desc   bool
}

var sortable = map[string]bool{"id": true, "title": true, "author": true, "price": true}

// ParsePage builds a Page from loose query values; sort has the form
// "field" or "field,asc|desc".
func ParsePage(number, size int, sort string) (Page, error) {
	p := Page{Number: number, Size: size, Sort: "id", Desc: true}
	if sort != "" {
		field, dir, _ := strings.Cut(sort, ",")
		field = strings.ToLower(strings.TrimSpace(field))
		if !sortable[field] {
			return Page{}, apperr.Validationf("cannot sort by %q", field)
		}
		p.Sort = field
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
			p.Desc = false
		case "desc":
			p.Desc = true
		default:
			return Page{}, apperr.Validationf("unknown sort direction %q", dir)
		}
	}
	return p.normalize(), nil
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if !sortable[p.Sort] {
		p.Sort, p.Desc = "id", true
	}
	return p
}

func (p Page) offset() int { return (p.Number - 1) * p.Size }

// BookPage is one page of books plus totals.
type BookPage struct {
	Items      []Book `json:"items"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	TotalItems int64  `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
}

func newBookPage(items []Book, p Page, total int64) BookPage {
	if items == nil {
		items = []Book{}
	}
	return BookPage{
		Items:      items,
		Page:       p.Number,
		Size:       p.Size,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(p.Size))),
	}
}
