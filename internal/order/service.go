package order

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/events"
	"github.com/ahinestrog/bookshop/internal/money"
	"github.com/ahinestrog/bookshop/internal/storage"
)

type Service struct {
	db     *sqlx.DB
	repo   *Repository
	events events.Publisher
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(db *sqlx.DB, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		db:     db,
		repo:   NewRepository(db),
		events: pub,
		log:    logger.With().Str("component", "order").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) publish(ctx context.Context, key string, orderID int64, payload any) {
	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.log.Warn().Err(err).Str("rk", key).Int64("order", orderID).Msg("publish failed")
	}
}

// PlaceOrder converts the user's cart into a PENDING order and deletes the
// cart. Reading the cart, writing the order and deleting the cart happen in
// one transaction.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, shippingAddress string) (*Order, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, apperr.Validationf("shipping address is required")
	}

	var o *Order
	err := storage.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		lines, err := repo.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperr.Conflictf("cart of user %d is empty or missing", userID)
		}

		now := s.now()
		o = &Order{
			Reference:       uuid.NewString(),
			UserID:          userID,
			Status:          StatusPending,
			ShippingAddress: shippingAddress,
			OrderDate:       now,
			UpdatedAt:       now,
			Lines:           make([]Line, 0, len(lines)),
		}
		amounts := make([]decimal.Decimal, 0, len(lines))
		for _, cl := range lines {
			if cl.Deleted {
				return apperr.Conflictf("book %d in cart is no longer available", cl.BookID)
			}
			price := money.Line(cl.UnitPrice, cl.Quantity)
			o.Lines = append(o.Lines, Line{
				BookID:    cl.BookID,
				BookTitle: cl.Title,
				Quantity:  cl.Quantity,
				Price:     price,
			})
			amounts = append(amounts, price)
		}
		o.Total = money.Sum(amounts...)

		if err := repo.Insert(ctx, o); err != nil {
			return err
		}
		return repo.DeleteCart(ctx, lines[0].CartID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("order", o.ID).Int64("user", userID).Str("total", o.Total.StringFixed(money.Places)).Msg("order placed")
	s.publish(ctx, RKOrderCreated, o.ID, CreatedPayload{
		OrderID:   o.ID,
		Reference: o.Reference,
		UserID:    o.UserID,
		Total:     o.Total,
		Items:     len(o.Lines),
	})
	return o, nil
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetOrder fails with NotFound unless the order belongs to userID.
func (s *Service) GetOrder(ctx context.Context, orderID, userID int64) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFoundf("order %d", orderID)
	}
	return o, nil
}

// UpdateOrderStatus overwrites the status. Any status may follow any other.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, st Status) (*Order, error) {
	if _, err := ParseStatus(string(st)); err != nil {
		return nil, err
	}

	var prev Status
	var out *Order
	err := storage.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		o, err := repo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		prev = o.Status
		o.Status, o.UpdatedAt = st, s.now()
		if err := repo.SetStatus(ctx, orderID, o.Status, o.UpdatedAt); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("order", orderID).Str("from", string(prev)).Str("to", string(st)).Msg("order status changed")
	s.publish(ctx, RKOrderStatusChanged, orderID, StatusChangedPayload{OrderID: orderID, From: prev, To: st})
	return out, nil
}

func (s *Service) GetOrderItems(ctx context.Context, orderID, userID int64) ([]Line, error) {
	o, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return o.Lines, nil
}

func (s *Service) GetOrderItem(ctx context.Context, orderID, itemID, userID int64) (*Line, error) {
	if _, err := s.GetOrder(ctx, orderID, userID); err != nil {
		return nil, err
	}
	return s.repo.Line(ctx, orderID, itemID)
}
