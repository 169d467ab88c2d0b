// Package auth resolves the caller identity for each operation. The
// notes service only ever asks one question - "who is the current
// caller, if anyone" - so identity travels in the request context and
// the token verification behind it stays swappable.
package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

var userKey contextKey

// WithUser returns a context carrying the given caller identity.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserFromContext returns the caller identity in the context, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// Verifier resolves a bearer token to a user identity.
type Verifier interface {
	Verify(token string) (string, bool)
}

// StaticVerifier verifies tokens against a fixed token-to-user map,
// typically the api_keys section of the config file.
type StaticVerifier struct {
	keys map[string]string
}

func NewStaticVerifier(keys map[string]string) *StaticVerifier {
	return &StaticVerifier{keys: keys}
}

func (v *StaticVerifier) Verify(token string) (string, bool) {
	userID, ok := v.keys[token]
	return userID, ok && userID != ""
}

// Middleware extracts the caller identity from the Authorization header
// and stores it in the request context. Requests without a valid token
// pass through anonymous; each operation decides for itself whether an
// anonymous caller is an error or an empty result.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if userID, ok := verifier.Verify(token); ok {
					r = r.WithContext(WithUser(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
