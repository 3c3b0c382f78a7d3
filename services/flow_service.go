// Package services — FlowService: çok adımlı admin akışları.
//
// Front end'deki düzenleme akışı interaktiftir: admin önce düzenleme türünü
// seçer, sonra hedef kullanıcı ID'sini girer, tarih değişikliğindeyse bir de
// yeni tarihi girer. Her adım ayrı bir HTTP çağrısıdır; ara durum TTL
// cache'te kısa ömürlü bir session olarak bekler.
//
// Kritik kural: store akış boyunca HİÇ kilitlenmez. Yazma sadece son adımda,
// tek bir atomik MutateUser çağrısıyla olur. Session süresi dolarsa akış
// "timed out" olur ve store'a hiçbir şey yazılmamıştır.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/lisans/authz"
	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/pkg/cache"
	"github.com/akinalp/lisans/repository"
)

// FlowService, interaktif akış işlemleri için public interface.
type FlowService interface {
	// Start, yeni bir akış başlatır. Admin yetkisi ister.
	Start(ctx context.Context, actorID int64, req *models.FlowStartRequest) (*models.FlowSession, error)

	// Input, akışa bir adımlık girdi verir ve state machine'i ilerletir.
	// Session yoksa (TTL dolmuş) → ErrTimeout.
	// Session başkasınınsa → ErrForbidden.
	Input(ctx context.Context, actorID int64, sessionID string, req *models.FlowInputRequest) (*models.FlowResult, error)

	// Close, cache'in arka plan temizliğini durdurur (graceful shutdown).
	Close()
}

type flowService struct {
	sessions *cache.TTLCache[string, *models.FlowSession]
	records  repository.RecordRepository
	policy   *authz.Policy
	admin    AdminService
}

// NewFlowService, constructor.
// Akışın son adımı AdminService.MutateUser'dan geçer — yetki gate'i,
// audit ve broadcast tek yerde kalır.
func NewFlowService(
	ttl time.Duration,
	records repository.RecordRepository,
	policy *authz.Policy,
	admin AdminService,
) FlowService {
	return &flowService{
		sessions: cache.New[string, *models.FlowSession](ttl, ttl/2),
		records:  records,
		policy:   policy,
		admin:    admin,
	}
}

func (s *flowService) Start(ctx context.Context, actorID int64, req *models.FlowStartRequest) (*models.FlowSession, error) {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireAdmin(snap, actorID); err != nil {
		return nil, err
	}

	mut := models.UserMutation{Kind: req.Kind, Plan: req.Plan}
	// expiry_set'in Value'su akış içinde toplanacak — Validate'i o yüzden
	// placeholder ile çağırıyoruz, gerçek tarih son adımda parse edilir.
	probe := mut
	if probe.Kind == models.MutationExpirySet {
		probe.Value = "pending"
	}
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	session := &models.FlowSession{
		ID:       uuid.NewString(),
		ActorID:  actorID,
		State:    models.FlowAwaitingTargetID,
		Mutation: mut,
	}
	s.sessions.Set(session.ID, session)
	return session, nil
}

func (s *flowService) Input(ctx context.Context, actorID int64, sessionID string, req *models.FlowInputRequest) (*models.FlowResult, error) {
	cached, ok := s.sessions.Get(sessionID)
	if !ok {
		// TTL dolmuş veya hiç olmamış — ikisi de aynı kapıya çıkar.
		return nil, fmt.Errorf("%w: flow session expired or unknown", pkg.ErrTimeout)
	}
	if cached.ActorID != actorID {
		return nil, pkg.ErrForbidden
	}

	// Cache'teki pointer paylaşılır: aynı session'a eşzamanlı iki Input
	// gelebilir. Paylaşılan nesneye hiç yazılmaz — mutasyon kopya üzerinde
	// yapılır, geçiş cache'e yeni bir pointer olarak yazılır. Başarısız bir
	// adım cache'teki session'ı olduğu gibi bırakır.
	copied := *cached
	session := &copied

	switch session.State {
	case models.FlowAwaitingTargetID:
		targetID, err := strconv.ParseInt(strings.TrimSpace(req.Value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: expected a numeric user id", pkg.ErrBadRequest)
		}
		session.TargetID = targetID

		if session.Mutation.Kind == models.MutationExpirySet {
			// Tarih adımı kaldı — session'ı güncelleyip devam et.
			session.State = models.FlowAwaitingDate
			s.sessions.Set(session.ID, session)
			return &models.FlowResult{Session: session}, nil
		}
		return s.finish(ctx, session)

	case models.FlowAwaitingDate:
		session.Mutation.Value = strings.TrimSpace(req.Value)
		return s.finish(ctx, session)

	default:
		return nil, fmt.Errorf("%w: flow already finished", pkg.ErrBadRequest)
	}
}

// finish, akışın son adımı: mutasyonu uygular ve session'ı kapatır.
// Hata durumunda session SİLİNMEZ — admin girdiyi düzeltip yeniden
// deneyebilir (ör. geçersiz tarih girdi, tarih adımı tekrarlanır).
func (s *flowService) finish(ctx context.Context, session *models.FlowSession) (*models.FlowResult, error) {
	record, err := s.admin.MutateUser(ctx, session.ActorID, session.TargetID, session.Mutation)
	if err != nil {
		return nil, err
	}

	session.State = models.FlowComplete
	s.sessions.Delete(session.ID)
	return &models.FlowResult{Session: session, Record: record}, nil
}

func (s *flowService) Close() {
	s.sessions.Close()
}
