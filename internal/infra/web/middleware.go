package web

import (
	"net/http"

	"github.com/google/uuid"

	"ai-scene-backend/internal/infra/logging"
)

// requestID tags every inbound request with a correlation id. An id supplied
// by the caller (or an upstream proxy) via X-Request-ID is reused; otherwise a
// fresh one is minted. The id is echoed back and flows into every dispatched
// job message.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logging.WithRequestID(r.Context(), id)
		if uid := r.Header.Get("X-User-ID"); uid != "" {
			ctx = logging.WithUserID(ctx, uid)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
