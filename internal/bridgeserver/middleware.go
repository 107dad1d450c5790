package bridgeserver

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey int

const userKey ctxKey = iota

// userFromContext returns the account authenticated by withBasicAuth.
func userFromContext(ctx context.Context) string {
	u, _ := ctx.Value(userKey).(string)
	return u
}

// withLogging writes one zap line per request.
func withLogging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// withBasicAuth checks the basic-auth password against the sha256 hex of
// the configured account password.
func withBasicAuth(users map[string]string) func(http.Handler) http.Handler {
	hashes := make(map[string]string, len(users))
	for user, pass := range users {
		hashes[user] = bridge.HashPassword(pass)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			want, known := hashes[user]
			if !ok || !known || subtle.ConstantTimeCompare([]byte(pass), []byte(want)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="storjcli bridge"`)
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}
