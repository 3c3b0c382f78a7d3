package services

import (
	"context"
	"log"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/repository"
)

// Audit operasyon adları — audit_log.operation kolonunda görünen değerler.
const (
	opRegister     = "register"
	opUnregister   = "unregister"
	opIssueLicense = "issue_license"
	opSetBan       = "set_ban"
	opSetAdmin     = "set_admin"
	opMutateUser   = "mutate_user"
)

// recordAudit, denenen bir operasyonun sonucunu audit trail'e düşer.
//
// Başarısız operasyonlar da kaydedilir — "kim neyi DENEDİ" sorusu
// güvenlik incelemesinde "kim neyi yaptı"dan daha değerlidir.
// Audit yazımı asıl operasyonu ASLA başarısız kılmaz: hata loglanır, yutulur.
func recordAudit(ctx context.Context, audits repository.AuditRepository, actorID int64, operation string, targetID int64, opErr error, detail string) {
	outcome := "ok"
	if opErr != nil {
		outcome = opErr.Error()
	}

	entry := &models.AuditEntry{
		ActorID:   actorID,
		Operation: operation,
		TargetID:  targetID,
		Outcome:   outcome,
		Detail:    detail,
	}
	if err := audits.Record(ctx, entry); err != nil {
		log.Printf("[services] failed to record audit entry (op=%s actor=%d): %v", operation, actorID, err)
	}
}
