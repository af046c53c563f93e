package middlewarectx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/coaching-platform/internal/http/response"
	"github.com/magabrotheeeer/coaching-platform/internal/models"
	"github.com/magabrotheeeer/coaching-platform/internal/services/ratelimit"
)

// RateLimiter описывает интерфейс сервиса лимитов по классам конечных точек.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string, class ratelimit.Class) models.RateLimitDecision
}

// RateLimitMiddleware создает middleware, ограничивающее частоту запросов
// к конечным точкам данного класса. Идентификатор — UID пользователя из
// контекста, для неаутентифицированных запросов — IP клиента.
func RateLimitMiddleware(log *slog.Logger, limiter RateLimiter, class ratelimit.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier, ok := r.Context().Value(UserUID).(string)
			if !ok || identifier == "" {
				identifier = clientIP(r)
			}

			decision := limiter.Allow(r.Context(), identifier, class)
			if !decision.Allowed {
				log.Info("request rate limited",
					slog.String("class", string(class)),
					slog.String("identifier", identifier))
				w.Header().Set("Retry-After", strconv.FormatInt(int64(decision.ResetAt.Unix()), 10))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests, try again after "+decision.ResetAt.Format("15:04:05")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
