package models

import "time"

// AuditEntry — her mutating operasyonun denetim kaydı.
// Record store'un kendisi dosya bazlıdır; audit trail ise append-only
// olduğu için SQLite'ta tutulur (bkz. repository/sqlite_audit.go).
type AuditEntry struct {
	ID        string    `json:"id"` // uuid
	ActorID   int64     `json:"actor_id"`
	Operation string    `json:"operation"` // "register", "issue_license", "set_ban", ...
	TargetID  int64     `json:"target_id"` // self-service operasyonlarda actor ile aynı
	Outcome   string    `json:"outcome"`   // "ok" veya hata metni
	Detail    string    `json:"detail"`    // operasyona özgü serbest metin (ban sebebi vb.)
	CreatedAt time.Time `json:"created_at"`
}
