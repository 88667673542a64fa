package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// requestIDHeader is the response header carrying the correlation id
// generated per request, letting an operator tie a REST call to its
// structured log lines and, downstream, to any chain submission it
// triggered.
const requestIDHeader = "X-Request-Id"

// RequestLogger writes basic request info using structured logging.
// Each request is tagged with a fresh UUID correlation id.
func RequestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := uuid.New().String()
			w.Header().Set(requestIDHeader, reqID)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": reqID,
			}).Info("incoming request")
			next.ServeHTTP(w, r)
		})
	}
}

// JSONHeaders sets Content-Type application/json for all responses.
func JSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
