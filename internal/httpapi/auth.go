package httpapi

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ahinestrog/bookshop/internal/apperr"
	"github.com/ahinestrog/bookshop/internal/user"
)

type ctxKey struct{}

func currentUser(ctx context.Context) *user.User {
	u, _ := ctx.Value(ctxKey{}).(*user.User)
	return u
}

// requireRole authenticates the request with HTTP Basic credentials and
// lets it through only when the user holds role.
func (s *Server) requireRole(role user.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			writeError(w, r, apperr.ErrUnauthorized)
			return
		}
		u, err := s.users.Authenticate(r.Context(), email, password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !u.HasRole(role) {
			writeError(w, r, apperr.ErrForbidden)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, u)
		l := zerolog.Ctx(ctx).With().Int64("user", u.ID).Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
	})
}
