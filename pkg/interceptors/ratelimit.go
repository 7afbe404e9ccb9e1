package interceptors

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies one token bucket to all requests. onReject, when set,
// is called for every rejected request.
func RateLimitMiddleware(limiter *rate.Limiter, onReject func(), next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			if onReject != nil {
				onReject()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewLimiter builds the global limiter from the configured rate and burst.
// A non-positive rate disables limiting.
func NewLimiter(perSecond, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = perSecond
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
