package management

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes served by the management interface.
const (
	RouteReporters     = "/api/v1/reporters"
	RouteReporterStart = "/api/v1/reporters/start"
	RouteReporterStop  = "/api/v1/reporters/stop"
	RouteSnapshots     = "/api/v1/snapshots"
	RouteMetrics       = "/metrics"
	RouteHealth        = "/health"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux      *http.ServeMux
	handlers *Handlers
	gatherer prometheus.Gatherer
}

// NewRouter creates a router with all routes configured. When gatherer is
// non-nil it is also served on /metrics.
func NewRouter(h *Handlers, gatherer prometheus.Gatherer) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		gatherer: gatherer,
	}
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}

func method(m string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != m {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, req)
	}
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc(RouteReporters, method(http.MethodGet, r.handlers.ListReporters))
	r.mux.HandleFunc(RouteReporterStart, method(http.MethodPost, r.handlers.StartReporter))
	r.mux.HandleFunc(RouteReporterStop, method(http.MethodPost, r.handlers.StopReporter))
	r.mux.HandleFunc(RouteSnapshots, method(http.MethodGet, r.handlers.GetSnapshots))

	if r.gatherer != nil {
		r.mux.Handle(RouteMetrics, promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	r.mux.HandleFunc(RouteHealth, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *Handlers, gatherer prometheus.Gatherer) *http.Server {
	router := NewRouter(h, gatherer)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
