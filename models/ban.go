// Package models — Ban (yasaklama) domain modeli.
//
// Ban sistemi nasıl çalışır?
// 1. Admin bir kullanıcıyı banlar → ban listesine kayıt eklenir
// 2. Banlı kullanıcının self-service komutları (register, unregister,
//    issue-license) store'a dokunmadan reddedilir
// 3. Unban yapılınca kayıt listeden silinir
//
// Ban listesi TEK kanonik kaynaktır; users.csv'deki banned kolonu
// save sırasında bu listeden türetilir (bkz. storage paketi).
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Ban, yasaklanmış bir kullanıcıyı temsil eder.
type Ban struct {
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason"`
	BannedBy  int64     `json:"banned_by"`
	CreatedAt time.Time `json:"created_at"`
}

// BanRequest, ban oluşturma isteği.
// Reason ban EKLERKEN zorunludur; unban'da gövde yoktur.
type BanRequest struct {
	Reason string `json:"reason"`
}

// Validate, BanRequest kontrolü.
func (r *BanRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return fmt.Errorf("ban reason is required")
	}
	if utf8.RuneCountInString(r.Reason) > 512 {
		return fmt.Errorf("ban reason must be at most 512 characters")
	}
	return nil
}
