package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/GingerImpasto/orangechat/internal/auth"
	"github.com/GingerImpasto/orangechat/internal/server/middleware"
)

const testSecret = "middleware-test-secret"

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func protectedHandler(t *testing.T, gotUserID *string) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqMeta, ok := middleware.ReqMetadataFrom(r.Context())
		if !ok {
			t.Fatal("request metadata missing in final handler")
		}
		*gotUserID = reqMeta.UserID
		w.WriteHeader(http.StatusOK)
	})
	return middleware.Chain(final,
		middleware.RequestMetadataMiddleware(),
		middleware.NewAuthMiddleware(newTestLogger(), auth.NewValidator(testSecret)),
	)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := auth.NewIssuer(testSecret, time.Hour).Issue("user-9")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	for _, carry := range []string{"header", "query"} {
		t.Run(carry, func(t *testing.T) {
			var gotUserID string
			handler := protectedHandler(t, &gotUserID)

			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if carry == "header" {
				req.Header.Set("Authorization", "Bearer "+token)
			} else {
				req = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
			}
			if gotUserID != "user-9" {
				t.Errorf("downstream saw userID %q, want user-9", gotUserID)
			}
		})
	}
}

func TestAuthMiddlewareRejectionReasons(t *testing.T) {
	expired, err := auth.NewIssuer(testSecret, -time.Minute).Issue("user-9")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"no token", "", "Authentication error: No token provided"},
		{"expired", expired, "Token expired"},
		{"garbage", "nope", "Invalid token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUserID string
			handler := protectedHandler(t, &gotUserID)

			url := "/ws"
			if tc.token != "" {
				url += "?token=" + tc.token
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != tc.want {
				t.Errorf("rejection body = %q, want %q", body, tc.want)
			}
			if gotUserID != "" {
				t.Error("handler ran despite rejected credential")
			}
		})
	}
}
