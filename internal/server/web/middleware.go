package web

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/google/uuid"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLogger attaches a request-scoped logger to the context and logs
// one line per finished request.
func (h *Handlers) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log := h.logger.With(
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
		)
		ctx := logging.NewContext(r.Context(), log)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Info(ctx, "request handled", "status", rec.status, "duration", time.Since(start))
	})
}
