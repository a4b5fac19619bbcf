package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/GingerImpasto/orangechat/internal/auth"
)

// BearerToken pulls the credential off a request: Authorization header
// first, then the "token" query parameter the WebSocket client uses
// (browsers cannot set headers on an upgrade request).
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// NewAuthMiddleware gates every protected route, the /ws upgrade
// included, on a valid bearer token. A rejected handshake never reaches
// the upgrade: the client gets a 401 whose body is the rejection
// reason.
func NewAuthMiddleware(logger *slog.Logger, validator *auth.Validator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			userID, err := validator.Validate(BearerToken(r))
			if err != nil {
				logger.Warn("rejected credential",
					slog.String("ip", reqMeta.IP),
					slog.Any("reason", err),
				)
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			reqMeta.UserID = userID
			next.ServeHTTP(w, r)
		})
	}
}
