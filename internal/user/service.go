package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/events"
	"github.com/ahinestrog/bookshop/internal/storage"
)

type Service struct {
	db     *sqlx.DB
	repo   *Repository
	events events.Publisher
	log    zerolog.Logger
	cost   int
}

func NewService(db *sqlx.DB, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		db:     db,
		repo:   NewRepository(db),
		events: pub,
		log:    logger.With().Str("component", "user").Logger(),
		cost:   bcrypt.DefaultCost,
	}
}

// WithHashCost returns a copy of s that hashes passwords at the given bcrypt
// cost.
func (s *Service) WithHashCost(cost int) *Service {
	c := *s
	c.cost = cost
	return &c
}

// Register creates a USER account. No cart is created until the user first
// adds a book.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	return s.create(ctx, in, RoleUser)
}

func (s *Service) create(ctx context.Context, in RegisterInput, roles ...Role) (*User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &User{
		Email:           in.Email,
		PasswordHash:    string(hash),
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       time.Now().UTC(),
		Roles:           roles,
	}
	if err := storage.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.repo.WithTx(tx).Create(ctx, u)
	}); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user", u.ID).Str("email", u.Email).Msg("user registered")
	if err := s.events.Publish(ctx, RKUserCreated, CreatedPayload{UserID: u.ID, Email: u.Email, Roles: u.Roles}); err != nil {
		s.log.Warn().Err(err).Str("rk", RKUserCreated).Int64("user", u.ID).Msg("publish failed")
	}
	return u, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords fail
// the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrUnauthorized
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// EnsureAdmin makes sure an account with the email exists and holds the
// ADMIN role. An existing account keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return s.create(ctx, RegisterInput{
			Email:     email,
			Password:  password,
			FirstName: "Admin",
			LastName:  "Admin",
		}, RoleUser, RoleAdmin)
	case err != nil:
		return nil, err
	}
	if u.HasRole(RoleAdmin) {
		return u, nil
	}
	if err := s.repo.AddRole(ctx, u.ID, RoleAdmin); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user", u.ID).Msg("admin role granted")
	return s.repo.GetByID(ctx, u.ID)
}
