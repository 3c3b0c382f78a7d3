// Package services — iş mantığı katmanı.
//
// Service'ler repository ile handler arasında durur: yetki gate'lerini
// çalıştırır, store operasyonunu çağırır, audit kaydını düşer, WS event'ini
// broadcast eder. Handler'lar HTTP'yi bilir, repository dosyaları bilir;
// iş kuralları burada yaşar.
package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/lisans/pkg"
)

// GatewayClaims, gateway'in mint ettiği actor token'ının claim'leri.
//
// UserID string olarak taşınır: snowflake ID'ler 2^53'ten büyük olabilir
// ve JSON number'lar float64'e düşünce hassasiyet kaybeder. String claim
// parse edilerek int64'e çevrilir — kayıp olmaz.
type GatewayClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// GatewayAuthService, gateway actor token'larını mint ve verify eden servis.
//
// Gateway (chat platformuna bağlanan process) her komut isteğinde,
// komutu veren kullanıcının ID'sini taşıyan kısa ömürlü bir token imzalar.
// Bu API token'ı doğrular ve actor ID'yi çıkarır — kullanıcı şifresi,
// oturum, refresh token yoktur; kimlik chat platformundan gelir.
type GatewayAuthService interface {
	// MintToken, verilen actor için imzalı token üretir.
	// Test ve gateway tarafı entegrasyonu için kullanılır.
	MintToken(actorID int64) (string, error)

	// VerifyToken, token'ı doğrular ve actor ID'yi döner.
	// İmza, süre veya claim hatası → ErrUnauthorized.
	VerifyToken(tokenString string) (int64, error)
}

type gatewayAuthService struct {
	secret []byte
	expiry time.Duration
}

// NewGatewayAuthService, constructor. expiryMinutes dakika cinsindendir.
func NewGatewayAuthService(secret string, expiryMinutes int) GatewayAuthService {
	return &gatewayAuthService{
		secret: []byte(secret),
		expiry: time.Duration(expiryMinutes) * time.Minute,
	}
}

func (s *gatewayAuthService) MintToken(actorID int64) (string, error) {
	now := time.Now()
	claims := GatewayClaims{
		UserID: strconv.FormatInt(actorID, 10),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *gatewayAuthService) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &GatewayClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*GatewayClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	actorID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid uid claim", pkg.ErrUnauthorized)
	}
	return actorID, nil
}
