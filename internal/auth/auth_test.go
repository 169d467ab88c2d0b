package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserFromContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := UserFromContext(ctx); ok {
		t.Error("Fresh context should be anonymous")
	}

	ctx = WithUser(ctx, "alice")
	userID, ok := UserFromContext(ctx)
	if !ok || userID != "alice" {
		t.Errorf("Expected alice, got %q (ok=%v)", userID, ok)
	}
}

func TestUserFromContext_EmptyUserIsAnonymous(t *testing.T) {
	ctx := WithUser(context.Background(), "")
	if _, ok := UserFromContext(ctx); ok {
		t.Error("Empty user id should read as anonymous")
	}
}

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{
		"token-a": "alice",
		"empty":   "",
	})

	if userID, ok := v.Verify("token-a"); !ok || userID != "alice" {
		t.Errorf("Expected alice, got %q (ok=%v)", userID, ok)
	}
	if _, ok := v.Verify("unknown"); ok {
		t.Error("Unknown token should not verify")
	}
	if _, ok := v.Verify("empty"); ok {
		t.Error("Token mapped to empty user should not verify")
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantUser   string
		wantCaller bool
	}{
		{"valid bearer token", "Bearer token-a", "alice", true},
		{"case-insensitive scheme", "bearer token-a", "alice", true},
		{"unknown token", "Bearer nope", "", false},
		{"no header", "", "", false},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", false},
	}

	verifier := NewStaticVerifier(map[string]string{"token-a": "alice"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			var gotCaller bool

			handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, gotCaller = UserFromContext(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if gotCaller != tt.wantCaller || gotUser != tt.wantUser {
				t.Errorf("Got user %q (caller=%v), want %q (caller=%v)",
					gotUser, gotCaller, tt.wantUser, tt.wantCaller)
			}
		})
	}
}
