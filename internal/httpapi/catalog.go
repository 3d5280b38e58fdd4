package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/catalog"
)

func pageFromQuery(r *http.Request) (catalog.Page, error) {
	number, err := queryInt(r, "page")
	if err != nil {
		return catalog.Page{}, err
	}
	size, err := queryInt(r, "size")
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.ParsePage(number, size, r.URL.Query().Get("sort"))
}

// listParam collects a query parameter given repeatedly or comma separated.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) error {
	p, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	page, err := s.catalog.ListBooks(r.Context(), p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (s *Server) searchBooks(w http.ResponseWriter, r *http.Request) error {
	p, err := pageFromQuery(r)
	if err != nil {
		return err
	}
	f := catalog.BookFilter{
		Titles:  listParam(r, "titles"),
		Authors: listParam(r, "authors"),
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		if f.CategoryID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return apperr.Validationf("invalid category %q", raw)
		}
	}
	page, err := s.catalog.SearchBooks(r.Context(), f, p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	b, err := s.catalog.GetBook(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, b)
	return nil
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) error {
	var in catalog.BookInput
	if err := decode(r, &in); err != nil {
		return err
	}
	b, err := s.catalog.CreateBook(r.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, b)
	return nil
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var in catalog.BookInput
	if err := decode(r, &in); err != nil {
		return err
	}
	b, err := s.catalog.UpdateBook(r.Context(), id, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, b)
	return nil
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteBook(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) error {
	cats, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, cats)
	return nil
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	c, err := s.catalog.GetCategory(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, c)
	return nil
}

func (s *Server) listCategoryBooks(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	books, err := s.catalog.ListBooksByCategory(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, books)
	return nil
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) error {
	var in catalog.CategoryInput
	if err := decode(r, &in); err != nil {
		return err
	}
	c, err := s.catalog.CreateCategory(r.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, c)
	return nil
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var in catalog.CategoryInput
	if err := decode(r, &in); err != nil {
		return err
	}
	c, err := s.catalog.UpdateCategory(r.Context(), id, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, c)
	return nil
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteCategory(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
