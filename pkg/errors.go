// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir (string taşıyan struct'lar).
// errors.New() ile sabit error değişkenleri tanımlarız.
// Böylece error karşılaştırması string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrBanned) { ... }
//
// Bu, typo'ya açık string karşılaştırmasından çok daha güvenlidir.
package pkg

import "errors"

// Domain-level error'lar.
// Repository ve service katmanı bunları döner, handler katmanı
// HTTP status code'larına map'ler. Her biri tek bir kararı temsil eder:
// front end (bot) bu kararı olduğu gibi kullanıcıya mesaj olarak gösterir.
var (
	// ErrForbidden — yetki kontrolü başarısız (admin değil, super admin değil).
	ErrForbidden = errors.New("forbidden")

	// ErrNotRegistered — hedef kullanıcının kaydı yok.
	ErrNotRegistered = errors.New("not registered")

	// ErrAlreadyRegistered — kullanıcı zaten kayıtlı.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrBanned — yasaklı kullanıcı self-service bir işlem deniyor.
	ErrBanned = errors.New("banned")

	// ErrAlreadyLicensed — kullanıcının zaten aktif bir lisansı var.
	ErrAlreadyLicensed = errors.New("already licensed")

	// ErrAlreadyInState — idempotent no-op: istenen durum zaten geçerli
	// (zaten banlı, zaten admin, zaten ban'sız vb.).
	ErrAlreadyInState = errors.New("already in requested state")

	// ErrInvalidDate — YYYYMMDD formatında olmayan tarih girdisi.
	// Kayıt değiştirilmeden bırakılır.
	ErrInvalidDate = errors.New("invalid date")

	// ErrTimeout — interaktif akış (flow) zamanında tamamlanmadı.
	// Store'a hiçbir yazma yapılmamıştır.
	ErrTimeout = errors.New("timed out")

	// ErrMalformedStorage — codec durable state'i parse edemedi.
	// Load bunu caller'a yükseltmez; loglayıp boş state ile devam eder.
	// Sabit yine de tanımlı: log satırları ve testler için tek kimlik.
	ErrMalformedStorage = errors.New("malformed storage")

	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")
)
