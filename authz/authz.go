// Package authz, yetkilendirme politikasını tek yerde toplar.
//
// Politika üç seviyelidir:
//   - super admin: deployment konfigürasyonundan gelir, store'da tutulmaz,
//     runtime'da değiştirilemez. Her şeyi yapabilir.
//   - admin: config.json'daki listede olanlar. Başka kullanıcıları
//     yönetebilir ama admin listesini değiştiremez.
//   - kullanıcı: sadece kendi kaydı üzerinde işlem yapabilir, banlıysa
//     onu da yapamaz.
//
// Buradaki fonksiyonlar pure predicate'lerdir: bir Snapshot alır, bool ya
// da sentinel error döner, hiçbir state değiştirmez. Snapshot mutex altında
// alındığı için karar verildiği andaki store haliyle tutarlıdır.
package authz

import (
	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
)

// Policy, yetki kararlarını veren struct.
type Policy struct {
	SuperAdminID int64
}

// NewPolicy, yeni bir Policy oluşturur.
func NewPolicy(superAdminID int64) *Policy {
	return &Policy{SuperAdminID: superAdminID}
}

// IsSuperAdmin, actor'ün değiştirilemez yetkili olup olmadığını döner.
func (p *Policy) IsSuperAdmin(actorID int64) bool {
	return actorID == p.SuperAdminID
}

// IsAdmin, actor'ün yönetici yetkisi taşıyıp taşımadığını döner.
// Super admin her zaman admin sayılır — listede olması gerekmez.
func (p *Policy) IsAdmin(snap *models.Snapshot, actorID int64) bool {
	return p.IsSuperAdmin(actorID) || snap.Admins[actorID]
}

// RequireSuperAdmin, admin listesi mutasyonları için gate.
// Normal admin'ler bile geçemez — yetki yükseltme zinciri burada kesilir.
func (p *Policy) RequireSuperAdmin(actorID int64) error {
	if !p.IsSuperAdmin(actorID) {
		return pkg.ErrForbidden
	}
	return nil
}

// RequireAdmin, başka kullanıcıları yöneten operasyonlar için gate.
func (p *Policy) RequireAdmin(snap *models.Snapshot, actorID int64) error {
	if !p.IsAdmin(snap, actorID) {
		return pkg.ErrForbidden
	}
	return nil
}

// RequireSelfService, kullanıcının kendi kaydı üzerindeki operasyonlar
// için gate. Banlı kullanıcı hiçbir self-service operasyonu yapamaz —
// kayıt silme dahil. Admin'ler banlı olsalar bile bu gate'e takılmaz
// çünkü admin operasyonları RequireAdmin'den geçer.
func (p *Policy) RequireSelfService(snap *models.Snapshot, actorID int64) error {
	if snap.Banned[actorID] {
		return pkg.ErrBanned
	}
	return nil
}
