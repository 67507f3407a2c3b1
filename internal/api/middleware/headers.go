package middleware

import (
	"net/http"
	"strconv"
	"time"
)

const APIVersion = "1.0.0"

// ResponseHeaders stamps every response with the API version and the
// elapsed processing time. Headers must be in place before the status
// line goes out, so the writer is wrapped and the stamp happens at the
// first WriteHeader or Write.
func ResponseHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&stampWriter{ResponseWriter: w, start: time.Now()}, r)
	})
}

type stampWriter struct {
	http.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *stampWriter) WriteHeader(code int) {
	if !w.stamped {
		w.stamped = true
		w.Header().Set("X-API-Version", APIVersion)
		w.Header().Set("X-Process-Time", strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', -1, 64))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *stampWriter) Write(b []byte) (int, error) {
	if !w.stamped {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
