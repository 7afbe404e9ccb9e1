package interceptors

import (
	"net/http"
	"strconv"

	"github.com/FACorreiaa/sig-activa/pkg/observability"
)

// MetricsMiddleware counts requests by route pattern and status. It must wrap the
// ServeMux directly so the matched pattern is visible after dispatch.
func MetricsMiddleware(m *observability.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
