// Package repository, kalıcı kayıt erişim katmanını tanımlar.
//
// Repository Pattern: service katmanı dosya formatlarını ve mutex'leri
// bilmez — interface üzerinden çalışır. Test'te mock yazması kolaylaşır,
// backing store değişirse sadece implementasyon değişir.
//
// Go'da interface "implicit"tır — bir struct, interface'deki tüm
// method'ları implement ediyorsa otomatik olarak o interface'i sağlar.
package repository

import (
	"context"

	"github.com/akinalp/lisans/models"
)

// RecordRepository, kayıt store'unun operasyonları için interface.
//
// Her mutating method tek bir atomik transaction'dır: mevcut state'i okur,
// ön koşulları state'e bakarak doğrular, mutasyonu uygular ve diske yazar.
// Method döndüğünde değişiklik ya tamamen kalıcıdır ya hiç olmamıştır —
// dolayısıyla check-then-act yarışları implementasyonun içinde çözülür,
// caller'ın lock tutması gerekmez.
//
// Ön koşul ihlalleri pkg sentinel'leriyle döner (ErrNotRegistered,
// ErrAlreadyRegistered, ErrBanned, ErrAlreadyLicensed, ErrAlreadyInState);
// handler katmanı bunları HTTP status'lara map'ler.
type RecordRepository interface {
	// RegisterUser, yeni bir kullanıcı kaydı açar.
	// Banlı → ErrBanned, zaten kayıtlı → ErrAlreadyRegistered.
	RegisterUser(ctx context.Context, userID int64, username string) (*models.UserRecord, error)

	// UnregisterUser, kullanıcının kaydını (lisansıyla birlikte) siler.
	// Kayıt yoksa → ErrNotRegistered.
	UnregisterUser(ctx context.Context, userID int64) error

	// IssueLicense, kayıtlı ve lisanssız kullanıcıya yeni bir kod üretir.
	// Kayıt yoksa → ErrNotRegistered, lisans varsa → ErrAlreadyLicensed.
	IssueLicense(ctx context.Context, userID int64) (*models.UserRecord, error)

	// SetBan, kullanıcıyı ban listesine ekler (banned=true) veya listeden
	// çıkarır (banned=false). Zaten istenen durumdaysa → ErrAlreadyInState.
	// Ban için kullanıcının kayıtlı olması gerekmez.
	SetBan(ctx context.Context, targetID int64, banned bool, reason string, actorID int64) error

	// SetAdmin, kullanıcıyı admin listesine ekler veya listeden çıkarır.
	// Zaten istenen durumdaysa → ErrAlreadyInState.
	SetAdmin(ctx context.Context, targetID int64, admin bool) error

	// MutateUser, admin'in hedef kayıt üzerindeki düzenlemelerini uygular:
	// lisans yenileme/silme, plan değiştirme, tarih değiştirme.
	// Kayıt yoksa → ErrNotRegistered, geçersiz tarih → ErrInvalidDate.
	MutateUser(ctx context.Context, targetID int64, mut models.UserMutation) (*models.UserRecord, error)

	// GetUser, tek bir kaydı döner. Yoksa → ErrNotRegistered.
	GetUser(ctx context.Context, userID int64) (*models.UserRecord, error)

	// Snapshot, yetki kararları için o anki üyelik kümelerini döner.
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	// ListUsers, tüm kayıtları kayıt sırasıyla döner.
	ListUsers(ctx context.Context) ([]models.UserRecord, error)

	// ListLicensed, lisans taşıyan kayıtları kayıt sırasıyla döner.
	ListLicensed(ctx context.Context) ([]models.UserRecord, error)

	// ListBans, ban listesini ekleniş sırasıyla döner.
	ListBans(ctx context.Context) ([]models.Ban, error)

	// ListAdmins, admin ID listesini ekleniş sırasıyla döner.
	ListAdmins(ctx context.Context) ([]int64, error)

	// ExpiringBefore, verilen tarihten önce süresi dolacak lisanslı
	// kayıtları döner. Expiry digest'i bunu kullanır.
	ExpiringBefore(ctx context.Context, cutoff string) ([]models.UserRecord, error)
}
