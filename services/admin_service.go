// Package services — AdminService: yöneticilerin başka kayıtlar üzerindeki
// işlemleri.
//
// Business logic:
// - Ban: admin yetkisi ister; hedef kayıtlı olmasa da banlanabilir
//   (register'ı peşinen engeller). Super admin banlanamaz.
// - Admin listesi: SADECE super admin değiştirir — normal admin'in
//   başka admin atamasına izin vermek yetki yükseltme zinciri açar.
// - Kayıt düzenleme: admin yetkisi ister; lisans yenileme/silme,
//   plan ve tarih değişikliği buradan geçer.
// - Listeler: admin yetkisi ister, kayıt sırasıyla döner.
package services

import (
	"context"
	"fmt"

	"github.com/akinalp/lisans/authz"
	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/repository"
	"github.com/akinalp/lisans/ws"
)

// AdminService, yönetim işlemleri için public interface.
type AdminService interface {
	// SetBan, hedefi ban listesine ekler veya çıkarır.
	SetBan(ctx context.Context, actorID, targetID int64, banned bool, reason string) error

	// SetAdmin, hedefi admin listesine ekler veya çıkarır. Super admin only.
	SetAdmin(ctx context.Context, actorID, targetID int64, admin bool) error

	// MutateUser, hedef kayıt üzerinde tek bir düzenleme uygular.
	MutateUser(ctx context.Context, actorID, targetID int64, mut models.UserMutation) (*models.UserRecord, error)

	// List, istenen kategorinin içeriğini döner.
	List(ctx context.Context, actorID int64, category models.ListCategory) (*models.Listing, error)

	// AuditTrail, bir kullanıcıya dokunan son denetim kayıtlarını döner;
	// byActor true ise kullanıcının AKTÖR olduğu kayıtlar listelenir.
	AuditTrail(ctx context.Context, actorID, subjectID int64, byActor bool, limit int) ([]models.AuditEntry, error)
}

type adminService struct {
	records repository.RecordRepository
	audits  repository.AuditRepository
	policy  *authz.Policy
	hub     ws.EventPublisher
}

// NewAdminService, constructor.
func NewAdminService(
	records repository.RecordRepository,
	audits repository.AuditRepository,
	policy *authz.Policy,
	hub ws.EventPublisher,
) AdminService {
	return &adminService{
		records: records,
		audits:  audits,
		policy:  policy,
		hub:     hub,
	}
}

func (s *adminService) SetBan(ctx context.Context, actorID, targetID int64, banned bool, reason string) error {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.policy.RequireAdmin(snap, actorID); err != nil {
		recordAudit(ctx, s.audits, actorID, opSetBan, targetID, err, reason)
		return err
	}
	if s.policy.IsSuperAdmin(targetID) {
		err := fmt.Errorf("%w: super admin cannot be banned", pkg.ErrForbidden)
		recordAudit(ctx, s.audits, actorID, opSetBan, targetID, err, reason)
		return err
	}

	err = s.records.SetBan(ctx, targetID, banned, reason, actorID)
	recordAudit(ctx, s.audits, actorID, opSetBan, targetID, err, reason)
	if err != nil {
		return err
	}

	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpBanUpdate,
		Data: ws.BanEventData{UserID: targetID, Banned: banned},
	})
	return nil
}

func (s *adminService) SetAdmin(ctx context.Context, actorID, targetID int64, admin bool) error {
	if err := s.policy.RequireSuperAdmin(actorID); err != nil {
		recordAudit(ctx, s.audits, actorID, opSetAdmin, targetID, err, "")
		return err
	}
	if s.policy.IsSuperAdmin(targetID) {
		// Super admin listeye eklenmez de çıkarılmaz da — yetkisi env'dendir.
		err := fmt.Errorf("%w: super admin is configured, not stored", pkg.ErrForbidden)
		recordAudit(ctx, s.audits, actorID, opSetAdmin, targetID, err, "")
		return err
	}

	err := s.records.SetAdmin(ctx, targetID, admin)
	recordAudit(ctx, s.audits, actorID, opSetAdmin, targetID, err, "")
	if err != nil {
		return err
	}

	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpAdminUpdate,
		Data: ws.AdminEventData{UserID: targetID, Admin: admin},
	})
	return nil
}

func (s *adminService) MutateUser(ctx context.Context, actorID, targetID int64, mut models.UserMutation) (*models.UserRecord, error) {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireAdmin(snap, actorID); err != nil {
		recordAudit(ctx, s.audits, actorID, opMutateUser, targetID, err, string(mut.Kind))
		return nil, err
	}

	record, err := s.records.MutateUser(ctx, targetID, mut)
	recordAudit(ctx, s.audits, actorID, opMutateUser, targetID, err, string(mut.Kind))
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpUserUpdate,
		Data: ws.UserEventData{UserID: record.UserID, Username: record.Username},
	})
	return record, nil
}

func (s *adminService) List(ctx context.Context, actorID int64, category models.ListCategory) (*models.Listing, error) {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireAdmin(snap, actorID); err != nil {
		return nil, err
	}

	listing := &models.Listing{Category: category}
	switch category {
	case models.ListUsers:
		listing.Users, err = s.records.ListUsers(ctx)
	case models.ListLicenses:
		listing.Users, err = s.records.ListLicensed(ctx)
	case models.ListBanned:
		listing.Bans, err = s.records.ListBans(ctx)
	case models.ListAdmins:
		listing.AdminIDs, err = s.records.ListAdmins(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown list category %q", pkg.ErrBadRequest, category)
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *adminService) AuditTrail(ctx context.Context, actorID, subjectID int64, byActor bool, limit int) ([]models.AuditEntry, error) {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireAdmin(snap, actorID); err != nil {
		return nil, err
	}

	// Salt okuma — audit'e yazılmaz, broadcast edilmez.
	if byActor {
		return s.audits.ListByActor(ctx, subjectID, limit)
	}
	return s.audits.ListByTarget(ctx, subjectID, limit)
}
