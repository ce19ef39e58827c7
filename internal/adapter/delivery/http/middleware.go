package http

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/vortex/internal/classifier"
	"github.com/vadimbarashkov/vortex/internal/entity"
	"github.com/vadimbarashkov/vortex/internal/metrics"
	"github.com/vadimbarashkov/vortex/pkg/ratelimit"
	"github.com/vadimbarashkov/vortex/pkg/response"
)

type ownerKey struct{}

func withOwner(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// ownerFromContext returns the authenticated owner, or uuid.Nil for anonymous requests.
func ownerFromContext(ctx context.Context) uuid.UUID {
	ownerID, _ := ctx.Value(ownerKey{}).(uuid.UUID)
	return ownerID
}

// parseOwnerToken validates an HS256 bearer token and returns the owner
// identified by its subject claim.
func parseOwnerToken(secret []byte, tokenStr string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", entity.ErrInvalidCredentials, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", entity.ErrInvalidCredentials, err)
	}

	ownerID, err := uuid.Parse(sub)
	if err != nil || ownerID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not an owner id", entity.ErrInvalidCredentials)
	}

	return ownerID, nil
}

// authenticate resolves the owner from the Authorization header. When
// required is false, requests without the header pass through anonymously,
// but a malformed or invalid token is still rejected.
func authenticate(secret []byte, required bool) func(http.Handler) http.Handler {
	const op = "delivery.http.authenticate"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" && !required {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			ownerID, err := parseOwnerToken(secret, tokenStr)
			if err != nil {
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), ownerID)))
		})
	}
}

type rateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, error)
}

// rateLimit limits requests per client IP under the given scope. Limiter
// failures let the request through.
func rateLimit(limiter rateLimiter, scope string, m *metrics.Metrics) func(http.Handler) http.Handler {
	const op = "delivery.http.rateLimit"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := classifier.ClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)

			res, err := limiter.Allow(r.Context(), scope+":"+ip)
			if err != nil {
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				m.RateLimited.Inc()

				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.TooManyRequestsResponse)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
