// Package middleware holds the HTTP middleware shared by every walletpass route.
// Rejections are written with api.RespondWithErrorResponse so clients always get the JSON error body.
package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/walletkit-demo/walletpass/internal/api"
	"github.com/walletkit-demo/walletpass/internal/logger"
)

// MaxRequestSizeHeader tells clients the largest request body the server accepts
const MaxRequestSizeHeader = "X-Max-Request-Size"

// RequestSizeLimit returns a middleware that enforces a maximum request body size.
//
// Requests with a Content-Length greater than maxBytes are rejected immediately.
// Otherwise the body is wrapped in a http.MaxBytesReader: handlers that read past the limit get a *http.MaxBytesError,
// which api.MapErrorToResponse reports as 413.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(MaxRequestSizeHeader, strconv.FormatInt(maxBytes, 10))

			if r.ContentLength > maxBytes {
				err := api.NewRequestTooLargeError(
					fmt.Sprintf("Request body size (%d bytes) exceeds maximum allowed size (%d bytes)", r.ContentLength, maxBytes),
				)
				api.RespondWithErrorResponse(w, r, err)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders adds security-related headers to all responses.
// Responses are not cacheable unless a handler says otherwise (the jwks handler does).
func SecurityHeaders(environment string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")

			if environment == "prod" || environment == "staging" {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits requests per second across all clients. If requestsPerSecond <= 0, rate limiting is disabled.
//
// Rejected requests get a 429 with a Retry-After header (whole seconds until a token is available).
func RateLimit(requestsPerSecond int32, burst int32) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reservation := limiter.Reserve()
			if !reservation.OK() || reservation.Delay() > 0 {
				retryAfter := int(math.Ceil(reservation.Delay().Seconds()))
				reservation.Cancel()

				reqLogger := logger.ContextRequestLogger(r.Context())
				reqLogger.Warn("Rate limit exceeded",
					slog.String("component", "RateLimit"),
					slog.String("remote_addr", r.RemoteAddr),
				)
				logger.ContextWithLogAttrs(r.Context(),
					slog.String("remote_addr", r.RemoteAddr),
				)

				w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
				api.RespondWithErrorResponse(w, r, api.NewRateLimitError("Too many requests. Please try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
