package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gatherkit/server/internal/api/handlers"
	"github.com/gatherkit/server/internal/api/middleware"
	"github.com/gatherkit/server/internal/clock"
	"github.com/gatherkit/server/internal/config"
	"github.com/gatherkit/server/internal/domain/events"
	"github.com/gatherkit/server/internal/metrics"
	"github.com/gatherkit/server/internal/storage/postgres"
)

// NewRouter wires repositories, services, handlers, and the middleware
// chain into the server's http.Handler.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (http.Handler, error) {
	zone, err := time.LoadLocation(cfg.Events.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("load default timezone %q: %w", cfg.Events.DefaultTimezone, err)
	}

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, fmt.Errorf("repository init: %w", err)
	}

	service := events.NewService(repo, clock.NewSystem(), zone)
	eventsHandler := handlers.NewEventsHandler(service, cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/healthz", route("/healthz", handlers.Healthz()))
	mux.Handle("/readyz", route("/readyz", handlers.Readyz(pool)))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/event/health_check", route("/event/health_check", methodMux(map[string]http.Handler{
		http.MethodGet: handlers.ServiceStatus(),
	})))
	mux.Handle("/event/create_events", route("/event/create_events", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(eventsHandler.Create),
	})))
	mux.Handle("/event/events", route("/event/events", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.ListUpcoming),
	})))
	mux.Handle("/event/{event_id}/register_attendee", route("/event/{event_id}/register_attendee", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(eventsHandler.Register),
	})))
	mux.Handle("/event/{event_id}/attendees", route("/event/{event_id}/attendees", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.ListAttendees),
	})))

	var handler http.Handler = mux
	handler = middleware.RateLimit(cfg.RateLimit)(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
}

// route attaches per-route Prometheus instrumentation labelled with the
// route pattern rather than the raw path.
func route(pattern string, handler http.Handler) http.Handler {
	return middleware.Instrument(pattern, handler)
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
