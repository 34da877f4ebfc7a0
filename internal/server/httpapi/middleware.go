package httpapi

import (
	"net/http"
	"strings"

	"github.com/mayankramina/secure-file-share/internal/server/auth"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, p auth.Principal)

// withAuth requires a Bearer access token and hands the resolved principal
// to the wrapped handler.
func (s *HTTPServer) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		p, err := auth.PrincipalFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r, p)
	}
}
