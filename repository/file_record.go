package repository

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/pkg/license"
	"github.com/akinalp/lisans/storage"
)

// Yeni verilen lisansların geçerlilik süresi.
const licenseValidityDays = 365

// Lisans kodu üretiminde collision retry üst sınırı.
// 36^16'lık uzayda collision pratikte imkânsızdır ama üretici fonksiyon
// test'te override edilebildiği için sınır yine de konur — sonsuz döngü olmaz.
const maxLicenseAttempts = 10

// fileRecordRepo, RecordRepository'nin dosya tabanlı implementasyonu.
//
// Eşzamanlılık modeli: TEK mutex, TÜM operasyonlar. Her method mutex'i alır,
// load → doğrula → değiştir → save adımlarını tamamlar, mutex'i bırakır.
// Kaba taneli (coarse-grained) ama doğru: iki eşzamanlı register aynı
// dosyayı yarıda kesemez, check-then-act yarışları olamaz. Store küçük
// (binlerce satır), kritik bölge kısa — daha ince lock'a gerek yok.
//
// now ve gen field'ları test'te override edilir: sabit saat ve deterministik
// lisans üretimi ile collision retry'ı bile test edilebilir.
type fileRecordRepo struct {
	mu          sync.Mutex
	files       *storage.Files
	defaultPlan models.Plan

	now func() time.Time
	gen func() (string, error)

	// onPersistError, save başarısız olduğunda mutex DIŞINDA çağrılır —
	// operatör bildirimi (alert e-postası) buraya bağlanır. nil olabilir.
	onPersistError func(error)
}

// NewFileRecordRepo, constructor fonksiyonu.
// onPersistError nil geçilebilir — bildirim istemeyen caller için.
func NewFileRecordRepo(files *storage.Files, defaultPlan models.Plan, onPersistError func(error)) RecordRepository {
	return &fileRecordRepo{
		files:          files,
		defaultPlan:    defaultPlan,
		now:            time.Now,
		gen:            license.Generate,
		onPersistError: onPersistError,
	}
}

// persist, state'i diske yazar; hata durumunda loglar ve hook'u tetikler.
// Save başarısızsa caller mutasyonu "olmamış" saymalıdır — bellekte tutulan
// state yok, bir sonraki load diskten eski hali okur.
func (r *fileRecordRepo) persist(state *storage.State) error {
	if err := r.files.Save(state); err != nil {
		log.Printf("[repository] persist failed: %v", err)
		if r.onPersistError != nil {
			go r.onPersistError(err)
		}
		return fmt.Errorf("%w: persist failed: %v", pkg.ErrInternal, err)
	}
	return nil
}

func (r *fileRecordRepo) RegisterUser(ctx context.Context, userID int64, username string) (*models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}

	if state.IsBanned(userID) {
		return nil, pkg.ErrBanned
	}
	if state.UserIndex(userID) >= 0 {
		return nil, pkg.ErrAlreadyRegistered
	}

	// Yeni kayıt lisanssız başlar: plan "none", lisans ve tarih boş.
	// Plan lisans VERİLİRKEN atanır, kayıt sırasında değil.
	record := models.UserRecord{
		UserID:   userID,
		Username: username,
		Plan:     models.PlanNone,
	}
	state.Users = append(state.Users, record)

	if err := r.persist(state); err != nil {
		return nil, err
	}
	log.Printf("[repository] user registered: id=%d username=%s", userID, username)
	return &record, nil
}

func (r *fileRecordRepo) UnregisterUser(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return err
	}

	idx := state.UserIndex(userID)
	if idx < 0 {
		return pkg.ErrNotRegistered
	}

	// Kayıt silinince lisansı da gider — lisans kayda bağlıdır.
	state.Users = append(state.Users[:idx], state.Users[idx+1:]...)

	if err := r.persist(state); err != nil {
		return err
	}
	log.Printf("[repository] user unregistered: id=%d", userID)
	return nil
}

func (r *fileRecordRepo) IssueLicense(ctx context.Context, userID int64) (*models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}

	idx := state.UserIndex(userID)
	if idx < 0 {
		return nil, pkg.ErrNotRegistered
	}
	if state.Users[idx].HasLicense() {
		return nil, pkg.ErrAlreadyLicensed
	}

	code, err := r.uniqueLicense(state)
	if err != nil {
		return nil, err
	}

	// Lisans verildiğinde plan KOŞULSUZ varsayılana döner — admin daha
	// önce ne atamış olursa olsun, yeni lisans varsayılan kademeyle başlar.
	state.Users[idx].License = code
	state.Users[idx].ExpiryDate = r.now().AddDate(0, 0, licenseValidityDays).Format(models.ExpiryLayout)
	state.Users[idx].Plan = r.defaultPlan

	if err := r.persist(state); err != nil {
		return nil, err
	}
	record := state.Users[idx]
	log.Printf("[repository] license issued: id=%d expiry=%s", userID, record.ExpiryDate)
	return &record, nil
}

// uniqueLicense, kullanımda olmayan bir lisans kodu üretir.
// Üretilen kod state'teki herhangi bir kayıtta varsa yeniden üretir.
func (r *fileRecordRepo) uniqueLicense(state *storage.State) (string, error) {
	for attempt := 0; attempt < maxLicenseAttempts; attempt++ {
		code, err := r.gen()
		if err != nil {
			return "", fmt.Errorf("%w: license generation failed: %v", pkg.ErrInternal, err)
		}
		if !state.HasLicense(code) {
			return code, nil
		}
		log.Printf("[repository] license collision, retrying (attempt %d)", attempt+1)
	}
	return "", fmt.Errorf("%w: could not generate a unique license", pkg.ErrInternal)
}

func (r *fileRecordRepo) SetBan(ctx context.Context, targetID int64, banned bool, reason string, actorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return err
	}

	idx := state.BanIndex(targetID)
	if banned {
		if idx >= 0 {
			return pkg.ErrAlreadyInState
		}
		state.Bans = append(state.Bans, models.Ban{
			UserID:    targetID,
			Reason:    reason,
			BannedBy:  actorID,
			CreatedAt: r.now().UTC(),
		})
	} else {
		if idx < 0 {
			return pkg.ErrAlreadyInState
		}
		state.Bans = append(state.Bans[:idx], state.Bans[idx+1:]...)
	}

	if err := r.persist(state); err != nil {
		return err
	}
	log.Printf("[repository] ban set: target=%d banned=%t by=%d", targetID, banned, actorID)
	return nil
}

func (r *fileRecordRepo) SetAdmin(ctx context.Context, targetID int64, admin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return err
	}

	idx := state.AdminIndex(targetID)
	if admin {
		if idx >= 0 {
			return pkg.ErrAlreadyInState
		}
		state.Admins = append(state.Admins, targetID)
	} else {
		if idx < 0 {
			return pkg.ErrAlreadyInState
		}
		state.Admins = append(state.Admins[:idx], state.Admins[idx+1:]...)
	}

	if err := r.persist(state); err != nil {
		return err
	}
	log.Printf("[repository] admin set: target=%d admin=%t", targetID, admin)
	return nil
}

func (r *fileRecordRepo) MutateUser(ctx context.Context, targetID int64, mut models.UserMutation) (*models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}

	idx := state.UserIndex(targetID)
	if idx < 0 {
		return nil, pkg.ErrNotRegistered
	}
	user := &state.Users[idx]

	switch mut.Kind {
	case models.MutationLicenseRegenerate:
		code, err := r.uniqueLicense(state)
		if err != nil {
			return nil, err
		}
		user.License = code
		user.ExpiryDate = r.now().AddDate(0, 0, licenseValidityDays).Format(models.ExpiryLayout)
	case models.MutationLicenseClear:
		user.License = ""
		user.ExpiryDate = ""
	case models.MutationPlanSet:
		if !mut.Plan.Valid() {
			return nil, fmt.Errorf("%w: invalid plan %q", pkg.ErrBadRequest, mut.Plan)
		}
		user.Plan = mut.Plan
	case models.MutationExpirySet:
		// Parse burada yapılır: hata varsa kayıt DOKUNULMADAN döner.
		date, err := models.ParseExpiryInput(mut.Value)
		if err != nil {
			return nil, err
		}
		user.ExpiryDate = date
	default:
		return nil, fmt.Errorf("%w: unknown mutation kind %q", pkg.ErrBadRequest, mut.Kind)
	}

	if err := r.persist(state); err != nil {
		return nil, err
	}
	record := *user
	record.Banned = state.IsBanned(targetID)
	log.Printf("[repository] user mutated: target=%d kind=%s", targetID, mut.Kind)
	return &record, nil
}

func (r *fileRecordRepo) GetUser(ctx context.Context, userID int64) (*models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}

	idx := state.UserIndex(userID)
	if idx < 0 {
		return nil, pkg.ErrNotRegistered
	}
	record := state.Users[idx]
	return &record, nil
}

func (r *fileRecordRepo) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		Admins:     make(map[int64]bool, len(state.Admins)),
		Banned:     make(map[int64]bool, len(state.Bans)),
		Registered: make(map[int64]bool, len(state.Users)),
	}
	for _, id := range state.Admins {
		snap.Admins[id] = true
	}
	for i := range state.Bans {
		snap.Banned[state.Bans[i].UserID] = true
	}
	for i := range state.Users {
		snap.Registered[state.Users[i].UserID] = true
	}
	return snap, nil
}

func (r *fileRecordRepo) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}
	return state.Users, nil
}

func (r *fileRecordRepo) ListLicensed(ctx context.Context) ([]models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}

	licensed := make([]models.UserRecord, 0)
	for i := range state.Users {
		if state.Users[i].HasLicense() {
			licensed = append(licensed, state.Users[i])
		}
	}
	return licensed, nil
}

func (r *fileRecordRepo) ListBans(ctx context.Context) ([]models.Ban, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}
	return state.Bans, nil
}

func (r *fileRecordRepo) ListAdmins(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}
	return state.Admins, nil
}

func (r *fileRecordRepo) ExpiringBefore(ctx context.Context, cutoff string) ([]models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.files.Load()
	if err != nil {
		return nil, err
	}

	expiring := make([]models.UserRecord, 0)
	for i := range state.Users {
		u := &state.Users[i]
		// YYYY-MM-DD formatı leksikografik sıralanabilir — parse gerekmez
		if u.HasLicense() && u.ExpiryDate != "" && u.ExpiryDate < cutoff {
			expiring = append(expiring, *u)
		}
	}
	return expiring, nil
}
