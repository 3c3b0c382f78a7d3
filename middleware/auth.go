// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware zinciri: Auth → RateLimit → Handler.
// Her middleware kendi işini yapar, sonra next'i çağırır;
// hata varsa next ÇAĞIRILMAZ — request orada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/lisans/handlers"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/services"
)

// AuthMiddleware, gateway token doğrulama middleware'ı.
type AuthMiddleware struct {
	gatewayAuth services.GatewayAuthService
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(gatewayAuth services.GatewayAuthService) *AuthMiddleware {
	return &AuthMiddleware{gatewayAuth: gatewayAuth}
}

// Require, gateway token'ı zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401 Unauthorized.
//
// HTTP header formatı: Authorization: Bearer <token>
//
// Store tarafında kullanıcı tablosuna bakılmaz: actor'ün KAYITLI olması
// gerekmez — register komutunu verecek kullanıcının henüz kaydı yoktur.
// Kimlik chat platformundan gelir, token sadece onu taşır.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actorID, err := m.gatewayAuth.VerifyToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.ActorContextKey, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
