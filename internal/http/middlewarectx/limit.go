package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// глобальный предохранитель от всплесков на весь процесс, поверх
// распределённых лимитов по пользователям
var limiter = rate.NewLimiter(100, 200)

// BurstGuardMiddleware отбрасывает запросы сверх общей пропускной
// способности процесса.
func BurstGuardMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
