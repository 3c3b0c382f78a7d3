// Package email, operatör bildirimleri için email gönderim soyutlaması sağlar.
//
// EmailSender interface'i ile gönderim detayları soyutlanır (Dependency
// Inversion). Şu anki implementasyon Resend API kullanır — sağlayıcı
// değişirse sadece yeni bir implementasyon yazıp constructor'da
// değiştirmek yeterli.
//
// İki tür bildirim vardır:
//   - expiry digest: süresi dolmak üzere olan lisansların periyodik özeti
//   - storage alert: persist hatası — operatörün HEMEN görmesi gereken durum
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/akinalp/lisans/models"
)

// EmailSender, operatör bildirimleri için interface.
// Service katmanı bu interface'e bağımlıdır, concrete Resend
// implementasyonuna değil.
type EmailSender interface {
	// SendExpiryDigest, süresi dolmak üzere olan lisanslı kayıtların
	// özetini gönderir. Boş liste ile çağrılmaz — caller filtreler.
	SendExpiryDigest(ctx context.Context, users []models.UserRecord) error

	// SendStorageAlert, persist hatasını operatöre bildirir.
	SendStorageAlert(ctx context.Context, cause error) error
}

// resendSender, Resend API ile gönderen EmailSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi — Resend'de doğrulanmış domain altında olmalı
	toEmail   string // Operatör adresi
}

// NewResendSender, Resend API client'ı ile yeni bir EmailSender oluşturur.
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
func NewResendSender(apiKey, fromEmail, toEmail string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}
}

func (s *resendSender) SendExpiryDigest(ctx context.Context, users []models.UserRecord) error {
	var rows strings.Builder
	for i := range users {
		u := &users[i]
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding:6px 12px;color:#e2e8f0;">%d</td><td style="padding:6px 12px;color:#e2e8f0;">%s</td><td style="padding:6px 12px;color:#e2e8f0;">%s</td><td style="padding:6px 12px;color:#f87171;">%s</td></tr>`,
			u.UserID, u.Username, u.Plan, u.ExpiryDate,
		))
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;background-color:#1a1a2e;font-family:Arial,Helvetica,sans-serif;">
  <h1 style="color:#e2e8f0;font-size:20px;">License Expiry Digest</h1>
  <p style="color:#94a3b8;font-size:14px;">%d license(s) expiring soon:</p>
  <table cellpadding="0" cellspacing="0" style="background-color:#16213e;border-radius:8px;">
    <tr>
      <th style="padding:6px 12px;color:#94a3b8;text-align:left;">User ID</th>
      <th style="padding:6px 12px;color:#94a3b8;text-align:left;">Username</th>
      <th style="padding:6px 12px;color:#94a3b8;text-align:left;">Plan</th>
      <th style="padding:6px 12px;color:#94a3b8;text-align:left;">Expires</th>
    </tr>
    %s
  </table>
</body>
</html>`, len(users), rows.String())

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("lisans <%s>", s.fromEmail),
		To:      []string{s.toEmail},
		Subject: fmt.Sprintf("License Expiry Digest — %d expiring", len(users)),
		Html:    html,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send expiry digest email: %w", err)
	}
	return nil
}

func (s *resendSender) SendStorageAlert(ctx context.Context, cause error) error {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;background-color:#1a1a2e;font-family:Arial,Helvetica,sans-serif;">
  <h1 style="color:#f87171;font-size:20px;">Storage Persist Failure</h1>
  <p style="color:#94a3b8;font-size:14px;line-height:1.6;">
    A write to the record store failed. The rejected mutation was NOT applied;
    the on-disk state is unchanged. Check disk space and file permissions.
  </p>
  <pre style="background-color:#16213e;color:#e2e8f0;padding:12px;border-radius:8px;font-size:13px;">%s</pre>
</body>
</html>`, cause)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("lisans <%s>", s.fromEmail),
		To:      []string{s.toEmail},
		Subject: "ALERT: record store persist failure",
		Html:    html,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send storage alert email: %w", err)
	}
	return nil
}
