// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar — her yerde ayrı ayrı
// os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/akinalp/lisans/models"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Audit   AuditConfig
	Gateway GatewayConfig
	Flow    FlowConfig
	Alert   AlertConfig
	Rate    RateLimitConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// StoreConfig, kayıt store'unun dosya ayarları.
//
// SuperAdminID store dosyalarında TUTULMAZ — deployment konfigürasyonudur.
// Config.json'daki admin listesi runtime'da değişir; super admin değişmez.
type StoreConfig struct {
	ConfigPath   string      // admin listesi (config.json)
	UsersPath    string      // kullanıcı kayıtları (users.csv)
	BansPath     string      // ban listesi (bans.csv)
	SuperAdminID int64       // değiştirilemez yetkili — env'den gelir
	DefaultPlan  models.Plan // yeni kayıtların başlangıç planı
}

// AuditConfig, audit trail database ayarları.
type AuditConfig struct {
	DBPath string // SQLite dosya yolu (ör: ./data/audit.db)
}

// GatewayConfig, gateway'den gelen actor token'larının ayarları.
type GatewayConfig struct {
	JWTSecret   string // Token imzalama anahtarı — GİZLİ TUTULMALI
	TokenExpiry int    // Dakika cinsinden (varsayılan: 60)
}

// FlowConfig, çok adımlı admin akışlarının ayarları.
type FlowConfig struct {
	TTL time.Duration // yanıt beklerken session'ın yaşam süresi
}

// AlertConfig, operatör e-posta bildirimlerinin ayarları.
// ResendAPIKey boşsa bildirimler kapalıdır — server yine de çalışır.
type AlertConfig struct {
	ResendAPIKey string
	EmailFrom    string
	EmailTo      string
	DigestDays   int // süresi dolmaya bu kadar gün kalan lisanslar digest'e girer
}

// RateLimitConfig, komut rate limit ayarları.
type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	superAdminRaw := getEnv("SUPER_ADMIN_ID", "")
	if superAdminRaw == "" {
		return nil, fmt.Errorf("SUPER_ADMIN_ID environment variable is required")
	}
	superAdminID, err := strconv.ParseInt(superAdminRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SUPER_ADMIN_ID: %w", err)
	}

	jwtSecret := getEnv("GATEWAY_JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("GATEWAY_JWT_SECRET environment variable is required")
	}

	tokenExpiry, err := strconv.Atoi(getEnv("GATEWAY_TOKEN_EXPIRY_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TOKEN_EXPIRY_MINUTES: %w", err)
	}

	defaultPlan := models.Plan(getEnv("DEFAULT_PLAN", string(models.PlanFree)))
	if !defaultPlan.Valid() {
		return nil, fmt.Errorf("invalid DEFAULT_PLAN: %q", defaultPlan)
	}

	flowTTL, err := strconv.Atoi(getEnv("FLOW_TTL_SECONDS", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid FLOW_TTL_SECONDS: %w", err)
	}

	digestDays, err := strconv.Atoi(getEnv("EXPIRY_DIGEST_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_DIGEST_DAYS: %w", err)
	}

	rateMax, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX_ATTEMPTS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX_ATTEMPTS: %w", err)
	}
	rateWindow, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %w", err)
	}

	// Store dosyaları DATA_DIR altında yaşar; tek tek path override edilebilir.
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Store: StoreConfig{
			ConfigPath:   getEnv("CONFIG_PATH", filepath.Join(dataDir, "config.json")),
			UsersPath:    getEnv("USERS_PATH", filepath.Join(dataDir, "users.csv")),
			BansPath:     getEnv("BANS_PATH", filepath.Join(dataDir, "bans.csv")),
			SuperAdminID: superAdminID,
			DefaultPlan:  defaultPlan,
		},
		Audit: AuditConfig{
			DBPath: getEnv("AUDIT_DB_PATH", filepath.Join(dataDir, "audit.db")),
		},
		Gateway: GatewayConfig{
			JWTSecret:   jwtSecret,
			TokenExpiry: tokenExpiry,
		},
		Flow: FlowConfig{
			TTL: time.Duration(flowTTL) * time.Second,
		},
		Alert: AlertConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			EmailFrom:    getEnv("ALERT_EMAIL_FROM", ""),
			EmailTo:      getEnv("ALERT_EMAIL_TO", ""),
			DigestDays:   digestDays,
		},
		Rate: RateLimitConfig{
			MaxAttempts: rateMax,
			Window:      time.Duration(rateWindow) * time.Second,
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
