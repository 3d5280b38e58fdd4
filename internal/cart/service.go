package cart

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/storage"
)

type Service struct {
	db   *sqlx.DB
	repo *Repository
	log  zerolog.Logger
}

func NewService(db *sqlx.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:   db,
		repo: NewRepository(db),
		log:  logger.With().Str("component", "cart").Logger(),
	}
}

// AddToCart puts qty copies of a book in the user's cart, creating the cart
// on first use.
func (s *Service) AddToCart(ctx context.Context, userID, bookID int64, qty int) (*Cart, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	err := storage.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if err := repo.BookAvailable(ctx, bookID); err != nil {
			return err
		}
		cartID, err := repo.EnsureCart(ctx, userID)
		if err != nil {
			return err
		}
		return repo.AddQuantity(ctx, cartID, bookID, qty)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int64("user", userID).Int64("book", bookID).Int("qty", qty).Msg("added to cart")
	return s.repo.FindByUser(ctx, userID)
}

// UpdateLineQuantity overwrites a line's quantity. A non-zero userID limits
// the lookup to that user's cart.
func (s *Service) UpdateLineQuantity(ctx context.Context, userID, lineID int64, qty int) (*Cart, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	line, err := s.ownedLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, lineID, qty); err != nil {
		return nil, err
	}
	return s.repo.FindByUser(ctx, line.UserID)
}

// RemoveLine deletes a line. The cart stays even when it ends up empty.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID int64) error {
	if _, err := s.ownedLine(ctx, userID, lineID); err != nil {
		return err
	}
	return s.repo.DeleteLine(ctx, lineID)
}

// GetCart fails with NotFound for users that never added anything.
func (s *Service) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *Service) ownedLine(ctx context.Context, userID, lineID int64) (*Line, error) {
	line, err := s.repo.FindLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && line.UserID != userID {
		return nil, apperr.NotFoundf("cart item %d", lineID)
	}
	return line, nil
}

func checkQuantity(qty int) error {
	if qty <= 0 || qty > MaxLineQuantity {
		return apperr.Validationf("quantity must be between 1 and %d, got %d", MaxLineQuantity, qty)
	}
	return nil
}
