package catalog

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/events"
	"github.com/ahinestrog/bookshop/internal/storage"
)

type Service struct {
	db     *sqlx.DB
	repo   *Repository
	events events.Publisher
	log    zerolog.Logger
}

func NewService(db *sqlx.DB, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		db:     db,
		repo:   NewRepository(db),
		events: pub,
		log:    logger.With().Str("component", "catalog").Logger(),
	}
}

func (s *Service) publish(ctx context.Context, key string, b *Book) {
	payload := BookChangedPayload{BookID: b.ID, ISBN: b.ISBN}
	if key != RKBookDeleted {
		payload.Price = b.Price.StringFixed(2)
	}
	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.log.Warn().Err(err).Str("rk", key).Int64("book", b.ID).Msg("publish failed")
	}
}

func (s *Service) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var b Book
	in.apply(&b)

	err := storage.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if err := checkCategories(ctx, repo, b.CategoryIDs); err != nil {
			return err
		}
		return repo.Create(ctx, &b)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("book", b.ID).Str("isbn", b.ISBN).Msg("book created")
	s.publish(ctx, RKBookCreated, &b)
	return &b, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (*Book, error) {
	return s.repo.Get(ctx, id)
}

// ListBooks pages through all live books.
func (s *Service) ListBooks(ctx context.Context, p Page) (BookPage, error) {
	return s.SearchBooks(ctx, BookFilter{}, p)
}

func (s *Service) SearchBooks(ctx context.Context, f BookFilter, p Page) (BookPage, error) {
	p = p.normalize()
	books, total, err := s.repo.Find(ctx, f, p)
	if err != nil {
		return BookPage{}, err
	}
	return newBookPage(books, p, total), nil
}

// UpdateBook replaces every field of a live book, categories included.
func (s *Service) UpdateBook(ctx context.Context, id int64, in BookInput) (*Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out *Book
	err := storage.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		in.apply(b)
		if err := checkCategories(ctx, repo, b.CategoryIDs); err != nil {
			return err
		}
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, RKBookUpdated, out)
	return out, nil
}

// DeleteBook soft-deletes a book. Existing orders keep referencing it.
func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("book", id).Msg("book deleted")
	s.publish(ctx, RKBookDeleted, &Book{ID: id})
	return nil
}

// ListBooksByCategory returns every live book linked to the category.
func (s *Service) ListBooksByCategory(ctx context.Context, categoryID int64) ([]Book, error) {
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	var all []Book
	p := Page{Number: 1, Size: MaxPageSize, Sort: "title"}
	for {
		books, total, err := s.repo.Find(ctx, BookFilter{CategoryID: categoryID}, p)
		if err != nil {
			return nil, err
		}
		all = append(all, books...)
		if int64(len(all)) >= total || len(books) == 0 {
			break
		}
		p.Number++
	}
	if all == nil {
		all = []Book{}
	}
	return all, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &Category{Name: in.Name, Description: in.Description}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &Category{ID: id, Name: in.Name, Description: in.Description}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

func checkCategories(ctx context.Context, repo *Repository, ids []int64) error {
	missing, err := repo.MissingCategories(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperr.Validationf("unknown category ids %v", missing)
	}
	return nil
}
