package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// TokenVerifier, WebSocket handler'ın token doğrulaması için kullandığı interface.
//
// Neden services paketine bağımlı olmuyoruz?
// Circular dependency'yi önlemek için:
// - services paketi ws.EventPublisher'ı kullanıyor (broadcast için)
// - ws paketi services'i kullansaydı → ws → services → ws döngüsü oluşurdu
//
// Interface Segregation: handler'ın tek ihtiyacı token'dan actor ID çıkarmak.
// main.go'da gatewayAuth bu interface'i implicit olarak karşılar.
type TokenVerifier interface {
	VerifyToken(tokenString string) (int64, error)
}

// upgrader, HTTP bağlantısını WebSocket bağlantısına yükseltir.
//
// WebSocket, normal HTTP isteği olarak başlar ve "upgrade" ile kalıcı,
// çift yönlü bir bağlantıya dönüşür.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: bu API'ye tarayıcı değil gateway process'i bağlanır —
	// origin kontrolü anlamsız, hepsine izin verilir.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, verifier TokenVerifier) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı
// Hub'a kaydeder.
//
// WebSocket el sıkışmasında Authorization header'ı taşımak zordur —
// token URL query parameter'ı olarak gönderilir:
//
//	ws://server/ws?token=JWT_TOKEN
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.verifier.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %d: %v", userID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}

	h.hub.register <- client

	// WritePump ayrı goroutine'de, ReadPump mevcut goroutine'de çalışır.
	// ReadPump bağlantı kapanana kadar bloklar — handler o zamana dek dönmez.
	go client.WritePump()
	client.ReadPump()
}
