// Package models — Flow (interaktif akış) session modeli.
//
// Front end'in modal/buton akışları ("hedef kullanıcı ID'sini gir",
// "yeni tarihi gir") çok adımlıdır. Store bu akışlar için ASLA beklemez;
// her adım ayrı bir HTTP çağrısıdır ve ara durum kısa ömürlü bir
// session olarak TTL cache'te tutulur. TTL dolarsa session düşer ve
// akış "timed out" olur — store'a hiçbir yazma yapılmamıştır.
package models

// FlowState, bir session'ın durum makinesindeki konumu.
// Zaman aşımının ayrı bir state'i yoktur: süresi dolan session cache'ten
// düşer ve sonraki input "session yok" (ErrTimeout) olarak döner.
type FlowState string

const (
	FlowAwaitingTargetID FlowState = "awaiting_target_id"
	FlowAwaitingDate     FlowState = "awaiting_date"
	FlowComplete         FlowState = "complete"
)

// FlowSession, devam eden tek bir interaktif akışı temsil eder.
// Mutation alanı akışın sonunda uygulanacak değişikliği taşır;
// hedef ID ve (gerekirse) tarih adım adım doldurulur.
type FlowSession struct {
	ID       string       `json:"id"`
	ActorID  int64        `json:"-"` // session sahibi — başkası input veremez
	State    FlowState    `json:"state"`
	Mutation UserMutation `json:"mutation"`
	TargetID int64        `json:"target_id,omitempty"`
}

// FlowStartRequest, yeni akış başlatma isteği.
type FlowStartRequest struct {
	Kind MutationKind `json:"kind"`
	Plan Plan         `json:"plan,omitempty"` // plan_set akışı için
}

// FlowInputRequest, akışa bir adımlık kullanıcı girdisi.
type FlowInputRequest struct {
	Value string `json:"value"`
}

// FlowResult, bir input adımının sonucu. Akış tamamlandıysa Record
// güncellenmiş kaydı taşır; değilse Session bir sonraki adımı gösterir.
type FlowResult struct {
	Session *FlowSession `json:"session"`
	Record  *UserRecord  `json:"record,omitempty"`
}
