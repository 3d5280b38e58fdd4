// Package httpapi exposes the bookshop over REST. Callers authenticate with
// HTTP Basic credentials; admin-only routes also need the ADMIN role.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/ahinestrog/bookshop/internal/cart"
	"github.com/ahinestrog/bookshop/internal/catalog"
	"github.com/ahinestrog/bookshop/internal/order"
	"github.com/ahinestrog/bookshop/internal/user"
)

type Deps struct {
	Catalog *catalog.Service
	Cart    *cart.Service
	Orders  *order.Service
	Users   *user.Service
	// Health reports whether backing stores are reachable. Optional.
	Health func(context.Context) error
}

type Options struct {
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
}

type Server struct {
	catalog *catalog.Service
	cart    *cart.Service
	orders  *order.Service
	users   *user.Service
	health  func(context.Context) error
}

// NewHandler builds the routed handler wrapped in the middleware chain:
// request id, logging, panic recovery, CORS, rate limiting.
func NewHandler(d Deps, opts Options, logger zerolog.Logger) http.Handler {
	s := &Server{
		catalog: d.Catalog,
		cart:    d.Cart,
		orders:  d.Orders,
		users:   d.Users,
		health:  d.Health,
	}

	var h http.Handler = s.routes()
	if opts.RateLimit > 0 && opts.RateWindow > 0 {
		h = NewRateLimiter(opts.RateLimit, opts.RateWindow).Middleware(h)
	}
	h = cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}).Handler(h)
	h = recoverPanics(h)
	h = logRequests(h)
	return withRequestID(logger, h)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	authed := func(fn apiFunc) http.Handler { return s.requireRole(user.RoleUser, fn) }
	admin := func(fn apiFunc) http.Handler { return s.requireRole(user.RoleAdmin, fn) }

	mux.Handle("GET /healthz", apiFunc(s.healthz))
	mux.Handle("POST /auth/register", apiFunc(s.register))
	mux.Handle("GET /auth/me", authed(s.me))

	mux.Handle("GET /books", authed(s.listBooks))
	mux.Handle("GET /books/search", authed(s.searchBooks))
	mux.Handle("GET /books/{id}", authed(s.getBook))
	mux.Handle("POST /books", admin(s.createBook))
	mux.Handle("PUT /books/{id}", admin(s.updateBook))
	mux.Handle("DELETE /books/{id}", admin(s.deleteBook))

	mux.Handle("GET /categories", authed(s.listCategories))
	mux.Handle("GET /categories/{id}", authed(s.getCategory))
	mux.Handle("GET /categories/{id}/books", authed(s.listCategoryBooks))
	mux.Handle("POST /categories", admin(s.createCategory))
	mux.Handle("PUT /categories/{id}", admin(s.updateCategory))
	mux.Handle("DELETE /categories/{id}", admin(s.deleteCategory))

	mux.Handle("GET /cart", authed(s.getCart))
	mux.Handle("POST /cart", authed(s.addToCart))
	mux.Handle("PUT /cart/items/{id}", authed(s.updateCartItem))
	mux.Handle("DELETE /cart/items/{id}", authed(s.removeCartItem))

	mux.Handle("POST /orders", authed(s.placeOrder))
	mux.Handle("GET /orders", authed(s.listOrders))
	mux.Handle("GET /orders/{id}", authed(s.getOrder))
	mux.Handle("GET /orders/{id}/items", authed(s.getOrderItems))
	mux.Handle("GET /orders/{id}/items/{itemId}", authed(s.getOrderItem))
	mux.Handle("PATCH /orders/{id}", admin(s.updateOrderStatus))
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) error {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}
