// Package main, lisans kayıt servisinin giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Store dosyalarını aç (config.json, users.csv, bans.csv)
//  3. Audit database'ini başlat
//  4. E-posta sender'ını kur (opsiyonel)
//  5. Repository'leri oluştur
//  6. WebSocket Hub'ı başlat
//  7. Service'leri oluştur (repository'ler + hub ile)
//  8. Handler'ları oluştur (service'ler ile)
//  9. Middleware'ları oluştur
// 10. HTTP router'ı kur, route'ları bağla
// 11. CORS yapılandır
// 12. HTTP Server'ı başlat
// 13. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/lisans/authz"
	"github.com/akinalp/lisans/config"
	"github.com/akinalp/lisans/database"
	"github.com/akinalp/lisans/handlers"
	"github.com/akinalp/lisans/middleware"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/pkg/email"
	"github.com/akinalp/lisans/pkg/ratelimit"
	"github.com/akinalp/lisans/repository"
	"github.com/akinalp/lisans/services"
	"github.com/akinalp/lisans/storage"
	"github.com/akinalp/lisans/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] lisans server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d, super_admin=%d)", cfg.Server.Port, cfg.Store.SuperAdminID)

	// ─── 2. Store Dosyaları ───
	files, err := storage.NewFiles(cfg.Store.ConfigPath, cfg.Store.UsersPath, cfg.Store.BansPath)
	if err != nil {
		log.Fatalf("[main] failed to open store files: %v", err)
	}

	// ─── 3. Audit Database ───
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to access embedded migrations: %v", err)
	}
	db, err := database.New(cfg.Audit.DBPath, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize audit database: %v", err)
	}
	defer db.Close()

	// ─── 4. E-posta Sender (opsiyonel) ───
	//
	// RESEND_API_KEY boşsa bildirimler kapalıdır — server çalışmaya devam
	// eder, sadece digest ve alert e-postaları atılmaz.
	var sender email.EmailSender
	if cfg.Alert.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Alert.ResendAPIKey, cfg.Alert.EmailFrom, cfg.Alert.EmailTo)
		log.Println("[main] email notifications enabled")
	} else {
		log.Println("[main] email notifications disabled (no RESEND_API_KEY)")
	}

	// ─── 5. Repository Layer ───
	//
	// onPersistError: store yazması başarısız olursa operatöre e-posta.
	// Hook persist'in kritik bölgesi DIŞINDA, ayrı goroutine'de çalışır.
	var onPersistError func(error)
	if sender != nil {
		onPersistError = func(cause error) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := sender.SendStorageAlert(ctx, cause); err != nil {
				log.Printf("[main] failed to send storage alert: %v", err)
			}
		}
	}
	recordRepo := repository.NewFileRecordRepo(files, cfg.Store.DefaultPlan, onPersistError)
	auditRepo := repository.NewSQLiteAuditRepo(db.Conn)

	// ─── 6. WebSocket Hub ───
	hub := ws.NewHub()
	go hub.Run()

	// ─── 7. Service Layer ───
	policy := authz.NewPolicy(cfg.Store.SuperAdminID)
	gatewayAuth := services.NewGatewayAuthService(cfg.Gateway.JWTSecret, cfg.Gateway.TokenExpiry)
	accountService := services.NewAccountService(recordRepo, auditRepo, policy, hub)
	adminService := services.NewAdminService(recordRepo, auditRepo, policy, hub)
	flowService := services.NewFlowService(cfg.Flow.TTL, recordRepo, policy, adminService)
	defer flowService.Close()

	// Expiry digest — e-posta kapalıysa notifier hiç başlatılmaz.
	if sender != nil {
		notifier := services.NewExpiryNotifier(recordRepo, sender, cfg.Alert.DigestDays, 24*time.Hour)
		go notifier.Run()
		defer notifier.Stop()
	}

	// ─── 8. Handler Layer ───
	accountHandler := handlers.NewAccountHandler(accountService)
	adminHandler := handlers.NewAdminHandler(adminService)
	flowHandler := handlers.NewFlowHandler(flowService)
	wsHandler := ws.NewHandler(hub, gatewayAuth)

	// ─── 9. Middleware ───
	authMiddleware := middleware.NewAuthMiddleware(gatewayAuth)
	limiter := ratelimit.NewCommandRateLimiter(cfg.Rate.MaxAttempts, cfg.Rate.Window)
	defer limiter.Close()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter)

	// protected: Auth → RateLimit → handler zinciri.
	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Require(rateLimitMiddleware.Limit(h))
	}

	// ─── 10. Routes ───
	mux := http.NewServeMux()

	// Health check — auth gerektirmez, gateway'in liveness probe'u
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Account — self-service işlemler
	mux.Handle("POST /api/account/register", protected(accountHandler.Register))
	mux.Handle("DELETE /api/account", protected(accountHandler.Unregister))
	mux.Handle("POST /api/account/license", protected(accountHandler.IssueLicense))
	mux.Handle("GET /api/account", protected(accountHandler.Me))

	// Users — görüntüleme ve admin düzenlemeleri
	mux.Handle("GET /api/users/{id}", protected(accountHandler.GetUser))
	mux.Handle("PATCH /api/users/{id}", protected(adminHandler.MutateUser))

	// Bans — admin yetkisi service katmanında kontrol edilir
	mux.Handle("POST /api/bans/{id}", protected(adminHandler.Ban))
	mux.Handle("DELETE /api/bans/{id}", protected(adminHandler.Unban))

	// Admins — super admin only (service katmanında)
	mux.Handle("POST /api/admins/{id}", protected(adminHandler.Promote))
	mux.Handle("DELETE /api/admins/{id}", protected(adminHandler.Demote))

	// Lists — kategori bazlı listeleme
	mux.Handle("GET /api/lists/{category}", protected(adminHandler.List))

	// Audit — kullanıcı bazlı denetim kaydı görüntüleme
	mux.Handle("GET /api/audit/{id}", protected(adminHandler.AuditTrail))

	// Flows — çok adımlı admin akışları
	mux.Handle("POST /api/flows", protected(flowHandler.Start))
	mux.Handle("POST /api/flows/{id}/input", protected(flowHandler.Input))

	// WebSocket — token query parameter ile authenticate edilir
	// (upgrade sırasında Authorization header taşınamaz)
	mux.HandleFunc("GET /ws", wsHandler.HandleConnection)

	// ─── 11. CORS ───
	//
	// Bu API'ye tarayıcı değil gateway process'i bağlanır; CORS yine de
	// açılır ki operasyon panelleri doğrudan sorgu atabilsin.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	handler := corsHandler.Handler(mux)

	// ─── 12. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 13. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WebSocket bağlantılarını kapat, sonra HTTP server'ı —
	// yeni request kabul etmeyi durdurur, mevcutların bitmesini bekler.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
