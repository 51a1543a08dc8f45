package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/adlume/authd/pkg/jwtx"
	"github.com/adlume/authd/pkg/slogx"
)

// TokenVerifier validates an access token against a point in time.
// *jwtx.Codec satisfies this.
type TokenVerifier interface {
	Verify(raw string, now time.Time) (jwtx.Claims, error)
}

// AuthnMiddleware enforces a valid Bearer access token and injects the
// verified identity into the request context.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw, time.Now().UTC())
			if err != nil {
				log.Warn("access token verification failed")
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
