// Package services — ExpiryNotifier: patlamak üzere olan lisansların
// periyodik operatör özeti.
package services

import (
	"context"
	"log"
	"time"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg/email"
	"github.com/akinalp/lisans/repository"
)

// ExpiryNotifier, periyodik expiry digest'i gönderen arka plan servisi.
//
// Her interval'da bir kez, önümüzdeki digestDays gün içinde süresi dolacak
// lisanslı kayıtları toplar ve operatöre e-posta ile gönderir. Liste boşsa
// e-posta atılmaz. Store'u sadece OKUR — hiçbir mutasyon yapmaz.
type ExpiryNotifier struct {
	records    repository.RecordRepository
	sender     email.EmailSender
	digestDays int
	interval   time.Duration
	stop       chan struct{}
}

// NewExpiryNotifier, constructor.
func NewExpiryNotifier(records repository.RecordRepository, sender email.EmailSender, digestDays int, interval time.Duration) *ExpiryNotifier {
	return &ExpiryNotifier{
		records:    records,
		sender:     sender,
		digestDays: digestDays,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

// Run, notifier'ın ana döngüsüdür. main.go'da `go notifier.Run()` ile
// başlatılır; Stop çağrılana kadar çalışır. İlk digest hemen gönderilir,
// sonrakiler interval'a göre gider.
func (n *ExpiryNotifier) Run() {
	n.sendDigest()

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.sendDigest()
		case <-n.stop:
			log.Println("[notifier] expiry notifier stopped")
			return
		}
	}
}

// Stop, notifier döngüsünü durdurur (graceful shutdown).
func (n *ExpiryNotifier) Stop() {
	close(n.stop)
}

func (n *ExpiryNotifier) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, n.digestDays).Format(models.ExpiryLayout)
	expiring, err := n.records.ExpiringBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[notifier] failed to collect expiring licenses: %v", err)
		return
	}
	if len(expiring) == 0 {
		return
	}

	if err := n.sender.SendExpiryDigest(ctx, expiring); err != nil {
		log.Printf("[notifier] failed to send expiry digest: %v", err)
		return
	}
	log.Printf("[notifier] expiry digest sent: %d license(s) expiring before %s", len(expiring), cutoff)
}
