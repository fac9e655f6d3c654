package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// Logging logs every request and turns panics into a 500.
func Logging(logger log.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if err := recover(); err != nil {
					logger.WithFields(log.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
						"panic":  err,
					}).Error("Panic recovered")
					// a started response cannot be turned into a 500
					if !rec.wroteHeader {
						http.Error(rec, "Internal Server Error", http.StatusInternalServerError)
					}
				}
				logger.WithFields(log.Fields{
					"method":   r.Method,
					"path":     r.URL.Path,
					"status":   rec.status,
					"duration": time.Since(start),
				}).Info("Handled request")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
