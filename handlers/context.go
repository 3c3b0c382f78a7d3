// Package handlers — HTTP endpoint katmanı.
//
// Thin handler prensibi: Parse → Service → Response.
// İş kuralı burada YAŞAMAZ; handler sadece HTTP'yi domain çağrısına çevirir.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
)

// contextKey, context value'ları için özel tip.
// String yerine özel tip kullanmak, farklı paketlerin aynı string key ile
// çakışmasını önler (Go context dokümantasyonunun önerdiği pattern).
type contextKey string

// ActorContextKey, auth middleware'ın context'e koyduğu actor ID'nin anahtarı.
// Value tipi int64'tür.
const ActorContextKey contextKey = "actor"

// actorFrom, request context'inden actor ID'yi çıkarır.
// Auth middleware'dan geçmeyen bir route'ta çağrılırsa ok=false döner.
func actorFrom(r *http.Request) (int64, bool) {
	actorID, ok := r.Context().Value(ActorContextKey).(int64)
	return actorID, ok
}

// pathID, {id} path parametresini int64'e çevirir.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("id path parameter is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be numeric, got %q", raw)
	}
	return id, nil
}
