// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Gateway bir komut gönderir → HTTP → Service → store mutasyonu
// 2. Service, Hub'ın BroadcastToAll metodunu çağırır
// 3. Hub, event'i tüm bağlı gateway client'larına iletir
// 4. Gateway event'i alır ve kendi cache'ini/arayüzünü günceller
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "user_register", "heartbeat" vb.
// Data: Event'e özgü payload.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
// Dinleyen taraf eksik event tespit etmek için seq'i takip eder.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat = "heartbeat" // Client periyodik gönderir — "hâlâ bağlıyım" sinyali
)

// Server → Client operasyonları
const (
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt — "seni duydum"

	OpUserRegister   = "user_register"   // Yeni kullanıcı kaydı açıldı
	OpUserUnregister = "user_unregister" // Kayıt silindi
	OpUserUpdate     = "user_update"     // Kayıt düzenlendi (plan, tarih, lisans)
	OpLicenseIssue   = "license_issue"   // Lisans verildi
	OpBanUpdate      = "ban_update"      // Ban listesi değişti
	OpAdminUpdate    = "admin_update"    // Admin listesi değişti
)

// UserEventData, kullanıcı kaydına dokunan event'lerin payload'ı.
// Lisans kodu payload'a KONMAZ — kod sadece sahibine HTTP yanıtında verilir.
type UserEventData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// BanEventData, ban_update event'inin payload'ı.
type BanEventData struct {
	UserID int64 `json:"user_id"`
	Banned bool  `json:"banned"`
}

// AdminEventData, admin_update event'inin payload'ı.
type AdminEventData struct {
	UserID int64 `json:"user_id"`
	Admin  bool  `json:"admin"`
}
