package middleware

import (
	"net/http"
	"strconv"

	"github.com/akinalp/lisans/handlers"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/pkg/ratelimit"
)

// RateLimitMiddleware, actor başına komut sayısını sınırlayan middleware.
//
// Limit IP'ye değil ACTOR'e göredir: tüm istekler aynı gateway process'inden
// gelir, IP bazlı limit tek kullanıcının floodunu değil herkesi keserdi.
// Auth middleware'dan SONRA zincire girmeli — actor ID context'te olmalı.
type RateLimitMiddleware struct {
	limiter *ratelimit.CommandRateLimiter
}

// NewRateLimitMiddleware, constructor.
func NewRateLimitMiddleware(limiter *ratelimit.CommandRateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit, pencere dolan actor'e 429 Too Many Requests döner.
// Retry-After header'ı saniye cinsinden bekleme süresini taşır.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := r.Context().Value(handlers.ActorContextKey).(int64)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "actor not found in context")
			return
		}

		if !m.limiter.Allow(actorID) {
			retryAfter := m.limiter.RetryAfterSeconds(actorID)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			pkg.ErrorWithMessage(w, http.StatusTooManyRequests, ratelimit.FormatRetryMessage(retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}
