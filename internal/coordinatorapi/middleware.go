package coordinatorapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/torrusd/internal/reqid"
)

const headerRequestID = "X-Request-ID"

// RequestID honors an incoming X-Request-ID or generates a fresh uuid,
// attaches it to the request context, and echoes it in the response.
//
// Grounded on the teacher's api/v1/middleware_requestid.go: identical
// shape, reused because it is already endpoint-agnostic.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := reqid.With(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type rwLogger struct {
	http.ResponseWriter
	status int
	bytes  int
	err    error
}

func (w *rwLogger) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *rwLogger) SetErr(err error) { w.err = err }

func (w *rwLogger) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

type errorSetter interface{ SetErr(error) }

func markErr(w http.ResponseWriter, err error) {
	if es, ok := w.(errorSetter); ok {
		es.SetErr(err)
	}
}

// Log wraps every request with a structured access-log line, grounded on
// the teacher's api/v1/middleware.go DownloadHandler.Log.
func Log(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &rwLogger{ResponseWriter: w}
			next.ServeHTTP(rw, r)
			if rw.status == 0 {
				rw.status = http.StatusOK
			}
			id, _ := reqid.From(r.Context())
			attrs := []any{
				"request_id", id,
				"method", r.Method,
				"url", r.URL.Path,
				"status", rw.status,
				"remote", r.RemoteAddr,
				"dur_ms", time.Since(start).Milliseconds(),
				"bytes", rw.bytes,
			}
			if rw.err != nil {
				log.Error(rw.err.Error(), attrs...)
				return
			}
			log.Info("", attrs...)
		})
	}
}
