package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"translogica.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
}

// withSession resolves the bearer token into an identity and stashes both on
// the request context. Requests without a token pass through anonymous; a
// token that resolves to nothing is rejected so clients learn their session
// expired instead of silently downgrading.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		user, ok := a.svc.Current(token)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "session expired or invalid")
			return
		}

		ctx := auth.ContextWithSessionID(r.Context(), token)
		ctx = auth.ContextWithUser(ctx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
