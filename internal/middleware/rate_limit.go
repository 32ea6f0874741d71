package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

// DefaultGlobalRateLimit is 100 requests per client IP every 15 minutes.
func DefaultGlobalRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Requests: 100,
		Window:   15 * time.Minute,
		Message:  "Too many requests from this IP, please try again later.",
	}
}

// DefaultAuthRateLimit returns default rate limit config for auth endpoints (10 requests per minute)
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many authentication attempts, please try again later.",
	}
}

// RateLimitByIP limits requests per client IP. Forwarding headers are only
// believed from trusted proxies.
func RateLimitByIP(config RateLimitConfig, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	message := config.Message
	if message == "" {
		message = "Rate limit exceeded"
	}
	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, message)
		}),
	)
}
