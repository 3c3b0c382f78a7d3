// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model nedir?
// Durable store'daki bir kaydın Go karşılığıdır. Aynı zamanda API'den
// gelen/giden verilerin şeklini de belirler.
//
// `json:"username"` gibi tag'ler, struct field'larının JSON'a nasıl
// serialize/deserialize edileceğini belirler.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akinalp/lisans/pkg"
)

// Plan, bir lisansa bağlı servis kademesini temsil eder.
// Go'da enum yoktur; typed constant'lar kullanılır.
type Plan string

// İzin verilen Plan değerleri. PlanNone lisanssız kayıtların varsayılanıdır.
const (
	PlanNone     Plan = "none"
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanDeluxe   Plan = "deluxe"
	PlanPremium  Plan = "premium"
)

// ParsePlan, string'den Plan üretir. Bilinmeyen değer → error.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown plan %q", pkg.ErrBadRequest, s)
	}
	return p, nil
}

// Valid, Plan'ın tanımlı değerlerden biri olup olmadığını kontrol eder.
func (p Plan) Valid() bool {
	switch p {
	case PlanNone, PlanFree, PlanStandard, PlanDeluxe, PlanPremium:
		return true
	}
	return false
}

// Tarih formatları.
//
// ExpiryLayout: store'da ve API'de görünen format (YYYY-MM-DD).
// ExpiryInputLayout: admin'in girdiği kompakt format (YYYYMMDD).
const (
	ExpiryLayout      = "2006-01-02"
	ExpiryInputLayout = "20060102"
)

// ParseExpiryInput, 8 haneli YYYYMMDD girdisini store formatına çevirir.
// Parse hatası ErrInvalidDate döner — caller kaydı DEĞİŞTİRMEDEN bırakmalı.
func ParseExpiryInput(s string) (string, error) {
	t, err := time.Parse(ExpiryInputLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: expected YYYYMMDD, got %q", pkg.ErrInvalidDate, s)
	}
	return t.Format(ExpiryLayout), nil
}

// UserRecord, kayıtlı bir kullanıcıyı temsil eder.
//
// UserID chat platformunun verdiği kimliktir (snowflake) — primary key,
// tüm kayıtlar arasında unique. Username sadece bilgi amaçlıdır.
// Banned alanı ban listesinden TÜRETİLİR: tek mutable kaynak ban
// listesidir, bu alan load sırasında yok sayılır (bkz. storage paketi).
type UserRecord struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Banned     bool   `json:"banned"`
	License    string `json:"license,omitempty"` // boş = lisans yok
	Plan       Plan   `json:"plan"`
	ExpiryDate string `json:"expiry_date,omitempty"` // YYYY-MM-DD veya boş
}

// HasLicense, kaydın aktif bir lisans taşıyıp taşımadığını döner.
func (u *UserRecord) HasLicense() bool {
	return u.License != ""
}

// RegisterRequest, kayıt isteği gövdesi.
// Username chat platformundan gelir — front end iletir, biz doğrularız.
type RegisterRequest struct {
	Username string `json:"username"`
}

// Validate, RegisterRequest kontrolü.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(r.Username) > 64 {
		return fmt.Errorf("username must be at most 64 characters")
	}
	return nil
}

// MutationKind, admin'in bir kullanıcı kaydında yapabileceği değişiklik
// türlerinin kapalı kümesi. String-keyed "action" parametresi yerine
// tagged enum: her tür kendi payload gereksinimini taşır ve switch'ler
// exhaustive kontrol edilir.
type MutationKind string

const (
	// MutationLicenseRegenerate — yeni bir lisans kodu üret ve ata.
	MutationLicenseRegenerate MutationKind = "license_regenerate"
	// MutationLicenseClear — mevcut lisans kodunu sil (alan boşalır).
	MutationLicenseClear MutationKind = "license_clear"
	// MutationPlanSet — planı Plan alanındaki değere çevir.
	MutationPlanSet MutationKind = "plan_set"
	// MutationExpirySet — son kullanma tarihini Value'daki YYYYMMDD değerine çevir.
	MutationExpirySet MutationKind = "expiry_set"
)

// UserMutation, manage-user-field isteğinin gövdesi.
// Kind'a göre Plan veya Value zorunludur; diğer alanlar yok sayılır.
type UserMutation struct {
	Kind  MutationKind `json:"kind"`
	Plan  Plan         `json:"plan,omitempty"`  // plan_set için
	Value string       `json:"value,omitempty"` // expiry_set için (YYYYMMDD)
}

// Validate, UserMutation'ın payload gereksinimlerini kontrol eder.
// Tarih parse'ı burada YAPILMAZ — o, kaydı değiştirme anında store'da
// yapılır ki InvalidDate durumunda kayıt dokunulmadan kalsın.
func (m *UserMutation) Validate() error {
	switch m.Kind {
	case MutationLicenseRegenerate, MutationLicenseClear:
		return nil
	case MutationPlanSet:
		if !m.Plan.Valid() {
			return fmt.Errorf("%w: plan_set requires a valid plan", pkg.ErrBadRequest)
		}
		return nil
	case MutationExpirySet:
		if strings.TrimSpace(m.Value) == "" {
			return fmt.Errorf("%w: expiry_set requires a date value", pkg.ErrBadRequest)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown mutation kind %q", pkg.ErrBadRequest, m.Kind)
	}
}

// Snapshot, yetki kararları için store durumunun salt-okunur özeti.
// authz paketi bu yapı üzerinde pure predicate'ler çalıştırır —
// snapshot alındıktan sonra store değişse bile snapshot değişmez.
type Snapshot struct {
	Admins     map[int64]bool
	Banned     map[int64]bool
	Registered map[int64]bool
}

// ListCategory, list komutunun kategori seçenekleri.
type ListCategory string

const (
	ListUsers    ListCategory = "users"
	ListLicenses ListCategory = "licenses"
	ListBanned   ListCategory = "banned"
	ListAdmins   ListCategory = "admins"
)

// ParseListCategory, path parametresinden kategori üretir.
func ParseListCategory(s string) (ListCategory, error) {
	c := ListCategory(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ListUsers, ListLicenses, ListBanned, ListAdmins:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown list category %q", pkg.ErrBadRequest, s)
}

// Listing, list komutunun sonucu. Kategoriye göre tek bir alan doludur.
// Sıralama kayıt (insertion) sırasıdır.
type Listing struct {
	Category ListCategory `json:"category"`
	Users    []UserRecord `json:"users,omitempty"`
	Bans     []Ban        `json:"bans,omitempty"`
	AdminIDs []int64      `json:"admin_ids,omitempty"`
}
