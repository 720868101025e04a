package auth

import (
	"fmt"
	"net/http"

	"github.com/toplivedeals/toplivedeals/internal/platform/httpx"
	"github.com/toplivedeals/toplivedeals/internal/shared"
)

// RequireUser rejects requests without an authenticated session.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.RespondError(w, fmt.Errorf("%w: authentication required", httpx.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}
