// Package ratelimit — CommandRateLimiter: aktör bazlı komut rate limiting.
//
// Komutlar (register, issue-license, ...) chat platformundan bağımsız ve
// asenkron gelir; tek bir kullanıcının komut spam'i store'un critical
// section'ında gereksiz kuyruk oluşturur. Her aktör (chat kullanıcı ID'si)
// için sliding window ile istek sayısı takip edilir.
//
// Neden in-memory?
// - Dosya/SQLite'a her istekte yazmak gereksiz I/O + contention yaratır.
// - Tek instance deploy için in-memory yeterli, harici bağımlılık gerekmez.
//
// Neden ayrı paket?
// handlers ↔ middleware arasında import cycle oluşmaması için limiter
// bağımsız bir leaf paket olarak konumlandırıldı.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// bucket, bir aktör için istek sayacı ve window başlangıç zamanı tutar.
//
// Sliding window:
// - İlk istek: windowStart = now, count = 1.
// - Sonraki istekler: window süresi geçmemişse count++.
// - Süre geçmişse window sıfırlanır (yeni pencere başlar).
type bucket struct {
	count       int
	windowStart time.Time
}

// CommandRateLimiter, aktör (kullanıcı ID) bazlı komut rate limiting.
//
//	limiter := ratelimit.NewCommandRateLimiter(10, time.Minute)
//	if !limiter.Allow(actorID) { return 429 }
type CommandRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[int64]*bucket
	maxAttempts int
	window      time.Duration
	stopCleanup chan struct{}
}

// NewCommandRateLimiter, yeni rate limiter oluşturur ve arka plan temizleme
// goroutine'ini başlatır. Temizleme her dakika çalışır ve süresi dolmuş
// bucket'ları siler — uzun süre çalışan süreçte bellek sızıntısını önler.
func NewCommandRateLimiter(maxAttempts int, window time.Duration) *CommandRateLimiter {
	rl := &CommandRateLimiter{
		buckets:     make(map[int64]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, aktörün bir komut daha çalıştırmasına izin verilip verilmediğini
// kontrol eder. Her çağrı sayacı artırır.
//
// true: istek kabul edildi. false: limit aşıldı → caller 429 dönmeli.
func (rl *CommandRateLimiter) Allow(actorID int64) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[actorID]
	if !exists {
		rl.buckets[actorID] = &bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		// Yeni pencere — eski sayaç sıfırlanır
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// RetryAfterSeconds, limit aşıldığında kalan bekleme süresini saniye
// cinsinden döner. HTTP Retry-After header değeri olarak kullanılır.
func (rl *CommandRateLimiter) RetryAfterSeconds(actorID int64) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[actorID]
	if !exists {
		return 0
	}

	remaining := rl.window - time.Since(b.windowStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1 // +1 yuvarlama — tam süre beklensin
}

// Close, temizleme goroutine'ini durdurur.
func (rl *CommandRateLimiter) Close() {
	close(rl.stopCleanup)
}

// cleanupLoop, arka planda süresi dolmuş bucket'ları temizler.
func (rl *CommandRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *CommandRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for id, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, id)
		}
	}
}

// FormatRetryMessage, kalan süreyi okunabilir formata çevirir.
// Örn: 120 → "2 minute(s)", 45 → "45 second(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
