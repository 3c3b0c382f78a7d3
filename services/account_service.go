// Package services — AccountService: kullanıcının kendi kaydı üzerindeki
// self-service işlemleri.
//
// Business logic:
// - Kayıt açma: banlı kullanıcı kayıt olamaz, mükerrer kayıt reddedilir
// - Kayıt silme: kullanıcı sadece kendi kaydını siler, lisans da gider
// - Lisans alma: kayıtlı + lisanssız olmak şart, kod bir kez verilir
// - Bilgi görüntüleme: herkes kendini görür; başkasını görmek admin işi
//
// WS broadcast: her başarılı mutasyon gateway'lere event olarak yayılır.
package services

import (
	"context"

	"github.com/akinalp/lisans/authz"
	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/repository"
	"github.com/akinalp/lisans/ws"
)

// AccountService, self-service işlemler için public interface.
// Handler katmanı bu interface'e bağımlıdır (Dependency Inversion).
type AccountService interface {
	// Register, actor için yeni bir kayıt açar.
	Register(ctx context.Context, actorID int64, req *models.RegisterRequest) (*models.UserRecord, error)

	// Unregister, actor'ün kendi kaydını (lisansıyla birlikte) siler.
	Unregister(ctx context.Context, actorID int64) error

	// IssueLicense, actor'e yeni bir lisans kodu üretir.
	// Kod yanıt gövdesinde SADECE sahibine döner — broadcast'e girmez.
	IssueLicense(ctx context.Context, actorID int64) (*models.UserRecord, error)

	// Info, bir kaydı görüntüler. actorID == targetID ise self-service;
	// değilse admin yetkisi gerekir.
	Info(ctx context.Context, actorID, targetID int64) (*models.UserRecord, error)
}

type accountService struct {
	records repository.RecordRepository
	audits  repository.AuditRepository
	policy  *authz.Policy
	hub     ws.EventPublisher
}

// NewAccountService, constructor. Tüm dependency'ler injection ile alınır.
func NewAccountService(
	records repository.RecordRepository,
	audits repository.AuditRepository,
	policy *authz.Policy,
	hub ws.EventPublisher,
) AccountService {
	return &accountService{
		records: records,
		audits:  audits,
		policy:  policy,
		hub:     hub,
	}
}

func (s *accountService) Register(ctx context.Context, actorID int64, req *models.RegisterRequest) (*models.UserRecord, error) {
	// Ban kontrolü repository'nin atomik bölgesinde de yapılır; buradaki
	// gate erken ve ucuz bir reddir, yarış varsa son söz repository'nindir.
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireSelfService(snap, actorID); err != nil {
		recordAudit(ctx, s.audits, actorID, opRegister, actorID, err, "")
		return nil, err
	}

	record, err := s.records.RegisterUser(ctx, actorID, req.Username)
	recordAudit(ctx, s.audits, actorID, opRegister, actorID, err, req.Username)
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpUserRegister,
		Data: ws.UserEventData{UserID: record.UserID, Username: record.Username},
	})
	return record, nil
}

func (s *accountService) Unregister(ctx context.Context, actorID int64) error {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.policy.RequireSelfService(snap, actorID); err != nil {
		recordAudit(ctx, s.audits, actorID, opUnregister, actorID, err, "")
		return err
	}

	err = s.records.UnregisterUser(ctx, actorID)
	recordAudit(ctx, s.audits, actorID, opUnregister, actorID, err, "")
	if err != nil {
		return err
	}

	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpUserUnregister,
		Data: ws.UserEventData{UserID: actorID},
	})
	return nil
}

func (s *accountService) IssueLicense(ctx context.Context, actorID int64) (*models.UserRecord, error) {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireSelfService(snap, actorID); err != nil {
		recordAudit(ctx, s.audits, actorID, opIssueLicense, actorID, err, "")
		return nil, err
	}

	record, err := s.records.IssueLicense(ctx, actorID)
	recordAudit(ctx, s.audits, actorID, opIssueLicense, actorID, err, "")
	if err != nil {
		return nil, err
	}

	// Lisans kodu event'e KONMAZ — sadece HTTP yanıtında sahibine gider.
	s.hub.BroadcastToAll(ws.Event{
		Op:   ws.OpLicenseIssue,
		Data: ws.UserEventData{UserID: record.UserID, Username: record.Username},
	})
	return record, nil
}

func (s *accountService) Info(ctx context.Context, actorID, targetID int64) (*models.UserRecord, error) {
	if actorID != targetID {
		snap, err := s.records.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.policy.RequireAdmin(snap, actorID); err != nil {
			return nil, err
		}
	}
	return s.records.GetUser(ctx, targetID)
}
