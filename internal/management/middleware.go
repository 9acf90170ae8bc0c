package management

import (
	"net/http"
	"time"
)

// RequestRecorder receives request latencies and failures.
type RequestRecorder interface {
	RecordRequest(request string, latency time.Duration)
	RecordError()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// OtherRoute labels requests to paths the router does not serve.
const OtherRoute = "other"

var apiRoutes = map[string]bool{
	RouteReporters:     true,
	RouteReporterStart: true,
	RouteReporterStop:  true,
	RouteSnapshots:     true,
}

// routeLabel keeps the request label set bounded.
func routeLabel(path string) string {
	if apiRoutes[path] {
		return path
	}
	return OtherRoute
}

// Instrument records the latency of every API request under its route and
// counts 5xx responses as errors. Health and metrics scrapes are skipped.
func Instrument(rec RequestRecorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == RouteHealth || r.URL.Path == RouteMetrics {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		rec.RecordRequest(routeLabel(r.URL.Path), time.Since(start))
		if sw.status >= http.StatusInternalServerError {
			rec.RecordError()
		}
	})
}
