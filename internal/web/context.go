package web

import (
	"net/http"

	"github.com/JonMunkholm/payrecon/internal/core"
	mw "github.com/JonMunkholm/payrecon/internal/web/middleware"
)

// requestMetadata stores the client IP and User-Agent in the request
// context for run logging. It must run after TrustedRealIP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), mw.ClientIP(r))
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
