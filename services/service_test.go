package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/lisans/authz"
	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/repository"
	"github.com/akinalp/lisans/storage"
	"github.com/akinalp/lisans/ws"
)

const superAdminID int64 = 1000

// memAuditRepo, testlerde audit kayıtlarını bellekte biriktirir.
type memAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (m *memAuditRepo) Record(_ context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAuditRepo) ListByActor(_ context.Context, actorID int64, _ int) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range m.entries {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memAuditRepo) ListByTarget(_ context.Context, targetID int64, _ int) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEntry
	for _, e := range m.entries {
		if e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memAuditRepo) last() *models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	e := m.entries[len(m.entries)-1]
	return &e
}

// fakeHub, broadcast edilen event'leri biriktiren EventPublisher mock'u.
type fakeHub struct {
	mu     sync.Mutex
	events []ws.Event
}

func (f *fakeHub) BroadcastToAll(event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeHub) BroadcastToUser(_ int64, event ws.Event) {
	f.BroadcastToAll(event)
}

func (f *fakeHub) OnlineUserIDs() []int64 { return nil }

func (f *fakeHub) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.events))
	for _, e := range f.events {
		ops = append(ops, e.Op)
	}
	return ops
}

// fixture, service testlerinin ortak kurulumu: gerçek dosya repo'su,
// bellek audit'i, fake hub.
type fixture struct {
	records repository.RecordRepository
	audits  *memAuditRepo
	hub     *fakeHub
	policy  *authz.Policy
	account AccountService
	admin   AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFiles(
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "users.csv"),
		filepath.Join(dir, "bans.csv"),
	)
	require.NoError(t, err)

	f := &fixture{
		records: repository.NewFileRecordRepo(files, models.PlanFree, nil),
		audits:  &memAuditRepo{},
		hub:     &fakeHub{},
		policy:  authz.NewPolicy(superAdminID),
	}
	f.account = NewAccountService(f.records, f.audits, f.policy, f.hub)
	f.admin = NewAdminService(f.records, f.audits, f.policy, f.hub)
	return f
}
