package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

var demoCategories = []CategoryInput{
	{Name: "Fiction", Description: "Novels and short stories"},
	{Name: "Programming", Description: "Software development"},
}

var demoBooks = []struct {
	in       BookInput
	category int
}{
	{BookInput{Title: "The Go Programming Language", Author: "Alan Donovan", ISBN: "978-0134190440", Price: decimal.RequireFromString("39.99")}, 1},
	{BookInput{Title: "Concurrency in Go", Author: "Katherine Cox-Buday", ISBN: "978-1491941195", Price: decimal.RequireFromString("34.50")}, 1},
	{BookInput{Title: "Cien años de soledad", Author: "Gabriel García Márquez", ISBN: "978-0307474728", Price: decimal.RequireFromString("19.99")}, 0},
	{BookInput{Title: "El amor en los tiempos del cólera", Author: "Gabriel García Márquez", ISBN: "978-0307387264", Price: decimal.RequireFromString("17.25")}, 0},
	{BookInput{Title: "Pedro Páramo", Author: "Juan Rulfo", ISBN: "978-0802133908", Price: decimal.RequireFromString("9.99")}, 0},
}

// SeedDemo fills a catalog with no live books with a few categories and
// books. Demo categories that already exist are reused. It returns the number
// of books created; a catalog with live books is left alone.
func (s *Service) SeedDemo(ctx context.Context) (int, error) {
	_, total, err := s.repo.Find(ctx, BookFilter{}, Page{Size: 1})
	if err != nil || total > 0 {
		return 0, err
	}

	existing, err := s.repo.ListCategories(ctx)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]int64, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	cats := make([]int64, len(demoCategories))
	for i, in := range demoCategories {
		if id, ok := byName[in.Name]; ok {
			cats[i] = id
			continue
		}
		c, err := s.CreateCategory(ctx, in)
		if err != nil {
			return 0, err
		}
		cats[i] = c.ID
	}
	for i, d := range demoBooks {
		in := d.in
		in.CategoryIDs = []int64{cats[d.category]}
		if _, err := s.CreateBook(ctx, in); err != nil {
			return i, err
		}
	}
	return len(demoBooks), nil
}
