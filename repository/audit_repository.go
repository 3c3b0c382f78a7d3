package repository

import (
	"context"

	"github.com/akinalp/lisans/models"
)

// AuditRepository, denetim kaydı işlemleri için interface.
//
// Audit trail append-only'dir: Record dışında yazan yoktur, güncelleme ve
// silme interface'te hiç tanımlı değildir — yanlışlıkla bile yapılamaz.
type AuditRepository interface {
	// Record, tek bir denetim kaydı ekler. ID ve CreatedAt içeride atanır.
	Record(ctx context.Context, entry *models.AuditEntry) error

	// ListByActor, actor'ün son kayıtlarını yeniden eskiye döner.
	ListByActor(ctx context.Context, actorID int64, limit int) ([]models.AuditEntry, error)

	// ListByTarget, hedef kullanıcıya dokunan son kayıtları yeniden eskiye döner.
	ListByTarget(ctx context.Context, targetID int64, limit int) ([]models.AuditEntry, error)
}
