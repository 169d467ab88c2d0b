package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/riskymind/nkem-ai-note/internal/logger"
)

const requestIDHeader = "X-Request-Id"

// requestIDMiddleware tags each request with an id (honoring one the
// client already sent) and logs the request/response pair in debug mode.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		logger.LogRequest(r.Method, r.URL.Path, r.RemoteAddr)
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.LogResponse(r.Method, r.URL.Path, rec.status, time.Since(start).String())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
