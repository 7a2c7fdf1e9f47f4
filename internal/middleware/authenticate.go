package middleware

import (
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/respond"
)

// AccessTokenCookie is the cookie that carries the access token.
const AccessTokenCookie = "accessToken"

// AccessVerifier validates access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid access token. The token is read
// from the accessToken cookie, falling back to an Authorization bearer header.
func Authenticate(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := accessToken(r)
			if token == "" {
				respond.Error(ctx, w, apperr.Unauthenticated("unauthorized request"))
				return
			}

			identity, err := verifier.VerifyAccess(token)
			if err != nil {
				respond.Error(ctx, w, err)
				return
			}

			ctx = auth.WithIdentity(ctx, identity)
			ctx = logging.With(ctx, "user_id", identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
