package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/lisans/database"
	"github.com/akinalp/lisans/models"
)

// sqliteAuditRepo, AuditRepository'nin SQLite implementasyonu.
type sqliteAuditRepo struct {
	db database.TxQuerier
}

// NewSQLiteAuditRepo, constructor fonksiyonu.
// AuditRepository interface'i döner (concrete struct değil).
func NewSQLiteAuditRepo(db database.TxQuerier) AuditRepository {
	return &sqliteAuditRepo{db: db}
}

func (r *sqliteAuditRepo) Record(ctx context.Context, entry *models.AuditEntry) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO audit_log (id, actor_id, operation, target_id, outcome, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Operation,
		entry.TargetID,
		entry.Outcome,
		entry.Detail,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (r *sqliteAuditRepo) ListByActor(ctx context.Context, actorID int64, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, actor_id, operation, target_id, outcome, detail, created_at
		FROM audit_log
		WHERE actor_id = ?
		ORDER BY created_at DESC
		LIMIT ?`
	return r.list(ctx, query, actorID, limit)
}

func (r *sqliteAuditRepo) ListByTarget(ctx context.Context, targetID int64, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, actor_id, operation, target_id, outcome, detail, created_at
		FROM audit_log
		WHERE target_id = ?
		ORDER BY created_at DESC
		LIMIT ?`
	return r.list(ctx, query, targetID, limit)
}

func (r *sqliteAuditRepo) list(ctx context.Context, query string, id int64, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, query, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Operation, &e.TargetID, &e.Outcome, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
