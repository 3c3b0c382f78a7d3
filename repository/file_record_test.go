package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/storage"
)

var licensePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// testClock: deterministik expiry hesapları için sabit saat.
var testClock = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*fileRecordRepo, *storage.Files) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFiles(
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "users.csv"),
		filepath.Join(dir, "bans.csv"),
	)
	require.NoError(t, err)

	repo := NewFileRecordRepo(files, models.PlanFree, nil).(*fileRecordRepo)
	repo.now = func() time.Time { return testClock }
	return repo, files
}

func TestRegisterUser(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	record, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.UserID)
	assert.Equal(t, "alice", record.Username)
	assert.False(t, record.HasLicense())
	assert.Empty(t, record.ExpiryDate)

	// Yeni kayıt lisanssızdır — plan "none" olarak başlar, varsayılan
	// plan ancak lisans verildiğinde atanır.
	assert.Equal(t, models.PlanNone, record.Plan)

	stored, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.PlanNone, stored.Plan)
}

func TestRegisterUser_Duplicate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)

	_, err = repo.RegisterUser(ctx, 42, "alice-again")
	assert.ErrorIs(t, err, pkg.ErrAlreadyRegistered)

	// Kayıt değişmemiş olmalı
	record, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", record.Username)
}

func TestRegisterUser_Banned(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetBan(ctx, 42, true, "spam", 1000))

	_, err := repo.RegisterUser(ctx, 42, "alice")
	assert.ErrorIs(t, err, pkg.ErrBanned)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users, "reddedilen register iz bırakmamalı")
}

func TestUnregisterUser(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)
	_, err = repo.IssueLicense(ctx, 42)
	require.NoError(t, err)

	require.NoError(t, repo.UnregisterUser(ctx, 42))

	_, err = repo.GetUser(ctx, 42)
	assert.ErrorIs(t, err, pkg.ErrNotRegistered)

	// Lisans kayıtla birlikte gitti
	licensed, err := repo.ListLicensed(ctx)
	require.NoError(t, err)
	assert.Empty(t, licensed)
}

func TestUnregisterUser_NotRegistered(t *testing.T) {
	repo, _ := newTestRepo(t)
	assert.ErrorIs(t, repo.UnregisterUser(context.Background(), 42), pkg.ErrNotRegistered)
}

func TestIssueLicense(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)

	record, err := repo.IssueLicense(ctx, 42)
	require.NoError(t, err)
	assert.Regexp(t, licensePattern, record.License)
	assert.Equal(t, testClock.AddDate(0, 0, 365).Format(models.ExpiryLayout), record.ExpiryDate)
	assert.Equal(t, models.PlanFree, record.Plan, "lisansla birlikte varsayılan plan atanır")
}

func TestIssueLicense_ResetsPlanToDefault(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)

	// Admin kayda lisanstan ÖNCE bir plan atamış olsun
	_, err = repo.MutateUser(ctx, 42, models.UserMutation{
		Kind: models.MutationPlanSet,
		Plan: models.PlanPremium,
	})
	require.NoError(t, err)

	// Lisans verilince plan koşulsuz varsayılana döner
	record, err := repo.IssueLicense(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, record.Plan)
}

func TestIssueLicense_AlreadyLicensed(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)
	first, err := repo.IssueLicense(ctx, 42)
	require.NoError(t, err)

	_, err = repo.IssueLicense(ctx, 42)
	assert.ErrorIs(t, err, pkg.ErrAlreadyLicensed)

	// İlk lisans değişmedi
	record, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first.License, record.License)
}

func TestIssueLicense_NotRegistered(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.IssueLicense(context.Background(), 42)
	assert.ErrorIs(t, err, pkg.ErrNotRegistered)
}

func TestIssueLicense_CollisionRetry(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = repo.RegisterUser(ctx, 2, "bob")
	require.NoError(t, err)

	// alice'e bilinen bir kod ver
	repo.gen = func() (string, error) { return "AAAA-AAAA-AAAA-AAAA", nil }
	_, err = repo.IssueLicense(ctx, 1)
	require.NoError(t, err)

	// bob için üretici önce aynı kodu, sonra farklısını dönsün
	calls := 0
	repo.gen = func() (string, error) {
		calls++
		if calls == 1 {
			return "AAAA-AAAA-AAAA-AAAA", nil
		}
		return "BBBB-BBBB-BBBB-BBBB", nil
	}

	record, err := repo.IssueLicense(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "BBBB-BBBB-BBBB-BBBB", record.License)
	assert.Equal(t, 2, calls)
}

func TestIssueLicense_CollisionExhausted(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = repo.RegisterUser(ctx, 2, "bob")
	require.NoError(t, err)

	repo.gen = func() (string, error) { return "AAAA-AAAA-AAAA-AAAA", nil }
	_, err = repo.IssueLicense(ctx, 1)
	require.NoError(t, err)

	// Üretici hep aynı kodu dönerse ErrInternal ile pes edilir
	_, err = repo.IssueLicense(ctx, 2)
	assert.ErrorIs(t, err, pkg.ErrInternal)
}

func TestSetBan(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)

	require.NoError(t, repo.SetBan(ctx, 42, true, "abuse", 1000))

	bans, err := repo.ListBans(ctx)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, int64(42), bans[0].UserID)
	assert.Equal(t, "abuse", bans[0].Reason)
	assert.Equal(t, int64(1000), bans[0].BannedBy)

	// Kayıt silinmez, banned alanı türetilir
	record, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, record.Banned)

	// Ban kaldırma
	require.NoError(t, repo.SetBan(ctx, 42, false, "", 1000))
	record, err = repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.False(t, record.Banned)
}

func TestSetBan_AlreadyInState(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetBan(ctx, 42, true, "spam", 1000))
	assert.ErrorIs(t, repo.SetBan(ctx, 42, true, "spam", 1000), pkg.ErrAlreadyInState)
	require.NoError(t, repo.SetBan(ctx, 42, false, "", 1000))
	assert.ErrorIs(t, repo.SetBan(ctx, 42, false, "", 1000), pkg.ErrAlreadyInState)
}

func TestSetBan_UnregisteredTarget(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	// Kayıtlı olmayan kullanıcı da banlanabilir — register'ı engeller
	require.NoError(t, repo.SetBan(ctx, 99, true, "preemptive", 1000))
	_, err := repo.RegisterUser(ctx, 99, "mallory")
	assert.ErrorIs(t, err, pkg.ErrBanned)
}

func TestSetAdmin(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetAdmin(ctx, 200, true))
	require.NoError(t, repo.SetAdmin(ctx, 300, true))

	admins, err := repo.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{200, 300}, admins, "ekleniş sırası korunur")

	assert.ErrorIs(t, repo.SetAdmin(ctx, 200, true), pkg.ErrAlreadyInState)

	require.NoError(t, repo.SetAdmin(ctx, 200, false))
	admins, err = repo.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{300}, admins)

	assert.ErrorIs(t, repo.SetAdmin(ctx, 200, false), pkg.ErrAlreadyInState)
}

func TestMutateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("license regenerate", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_, err := repo.RegisterUser(ctx, 42, "alice")
		require.NoError(t, err)
		first, err := repo.IssueLicense(ctx, 42)
		require.NoError(t, err)

		record, err := repo.MutateUser(ctx, 42, models.UserMutation{Kind: models.MutationLicenseRegenerate})
		require.NoError(t, err)
		assert.Regexp(t, licensePattern, record.License)
		assert.NotEqual(t, first.License, record.License)
	})

	t.Run("license clear", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_, err := repo.RegisterUser(ctx, 42, "alice")
		require.NoError(t, err)
		_, err = repo.IssueLicense(ctx, 42)
		require.NoError(t, err)

		record, err := repo.MutateUser(ctx, 42, models.UserMutation{Kind: models.MutationLicenseClear})
		require.NoError(t, err)
		assert.False(t, record.HasLicense())
		assert.Empty(t, record.ExpiryDate)
	})

	t.Run("plan set", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_, err := repo.RegisterUser(ctx, 42, "alice")
		require.NoError(t, err)

		record, err := repo.MutateUser(ctx, 42, models.UserMutation{
			Kind: models.MutationPlanSet,
			Plan: models.PlanDeluxe,
		})
		require.NoError(t, err)
		assert.Equal(t, models.PlanDeluxe, record.Plan)
	})

	t.Run("expiry set", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_, err := repo.RegisterUser(ctx, 42, "alice")
		require.NoError(t, err)

		record, err := repo.MutateUser(ctx, 42, models.UserMutation{
			Kind:  models.MutationExpirySet,
			Value: "20300101",
		})
		require.NoError(t, err)
		assert.Equal(t, "2030-01-01", record.ExpiryDate)
	})

	t.Run("invalid expiry leaves record untouched", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_, err := repo.RegisterUser(ctx, 42, "alice")
		require.NoError(t, err)
		before, err := repo.IssueLicense(ctx, 42)
		require.NoError(t, err)

		for _, bad := range []string{"2030-01-01", "20301341", "bugün", ""} {
			_, err := repo.MutateUser(ctx, 42, models.UserMutation{
				Kind:  models.MutationExpirySet,
				Value: bad,
			})
			assert.ErrorIs(t, err, pkg.ErrInvalidDate, "input: %q", bad)
		}

		after, err := repo.GetUser(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, before.ExpiryDate, after.ExpiryDate)
		assert.Equal(t, before.License, after.License)
	})

	t.Run("not registered", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		_, err := repo.MutateUser(ctx, 42, models.UserMutation{Kind: models.MutationLicenseClear})
		assert.ErrorIs(t, err, pkg.ErrNotRegistered)
	})
}

// Tam akış: kayıt → lisans → plan → tarih, ardından diskten taze reload
// ile kalıcılık doğrulaması.
func TestFullLifecyclePersistsAcrossReload(t *testing.T) {
	repo, files := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)
	issued, err := repo.IssueLicense(ctx, 42)
	require.NoError(t, err)
	_, err = repo.MutateUser(ctx, 42, models.UserMutation{Kind: models.MutationPlanSet, Plan: models.PlanDeluxe})
	require.NoError(t, err)
	_, err = repo.MutateUser(ctx, 42, models.UserMutation{Kind: models.MutationExpirySet, Value: "20300101"})
	require.NoError(t, err)

	// Aynı dosyalar üzerinde yeni bir repo — process restart simülasyonu
	fresh := NewFileRecordRepo(files, models.PlanFree, nil)
	record, err := fresh.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, issued.License, record.License)
	assert.Equal(t, models.PlanDeluxe, record.Plan)
	assert.Equal(t, "2030-01-01", record.ExpiryDate)
}

func TestSnapshot(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 1, "alice")
	require.NoError(t, err)
	require.NoError(t, repo.SetBan(ctx, 2, true, "spam", 1000))
	require.NoError(t, repo.SetAdmin(ctx, 3, true))

	snap, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Registered[1])
	assert.True(t, snap.Banned[2])
	assert.True(t, snap.Admins[3])
	assert.False(t, snap.Registered[99])
}

func TestListLicensed(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := repo.RegisterUser(ctx, int64(i+1), name)
		require.NoError(t, err)
	}
	_, err := repo.IssueLicense(ctx, 1)
	require.NoError(t, err)
	_, err = repo.IssueLicense(ctx, 3)
	require.NoError(t, err)

	licensed, err := repo.ListLicensed(ctx)
	require.NoError(t, err)
	require.Len(t, licensed, 2)
	assert.Equal(t, int64(1), licensed[0].UserID)
	assert.Equal(t, int64(3), licensed[1].UserID)
}

func TestExpiringBefore(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := repo.RegisterUser(ctx, int64(i+1), name)
		require.NoError(t, err)
		_, err = repo.IssueLicense(ctx, int64(i+1))
		require.NoError(t, err)
	}
	_, err := repo.MutateUser(ctx, 1, models.UserMutation{Kind: models.MutationExpirySet, Value: "20260620"})
	require.NoError(t, err)
	_, err = repo.MutateUser(ctx, 2, models.UserMutation{Kind: models.MutationExpirySet, Value: "20300101"})
	require.NoError(t, err)

	expiring, err := repo.ExpiringBefore(ctx, "2026-07-01")
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, int64(1), expiring[0].UserID)
}

// Eşzamanlı register'lar: her operasyon atomik olduğundan hiçbir kayıt
// kaybolmamalı — lost update yok.
func TestConcurrentRegisters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := repo.RegisterUser(ctx, id, fmt.Sprintf("user-%d", id))
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, n)
}

// Aynı kullanıcıya eşzamanlı lisans istekleri: tam olarak BİRİ başarılı
// olmalı, gerisi ErrAlreadyLicensed almalı.
func TestConcurrentIssueLicense(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RegisterUser(ctx, 42, "alice")
	require.NoError(t, err)

	const n = 10
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IssueLicense(ctx, 42)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, pkg.ErrAlreadyLicensed)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestPersistErrorHook(t *testing.T) {
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.csv")
	files, err := storage.NewFiles(
		filepath.Join(dir, "config.json"),
		usersPath,
		filepath.Join(dir, "bans.csv"),
	)
	require.NoError(t, err)

	notified := make(chan error, 1)
	repo := NewFileRecordRepo(files, models.PlanFree, func(err error) {
		notified <- err
	})

	// users.csv'yi dizinle değiştir — rename başarısız olur
	require.NoError(t, os.Remove(usersPath))
	require.NoError(t, os.Mkdir(usersPath, 0755))

	_, err = repo.RegisterUser(context.Background(), 42, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, pkg.ErrInternal)

	select {
	case hookErr := <-notified:
		assert.Error(t, hookErr)
	case <-time.After(2 * time.Second):
		t.Fatal("persist error hook was not called")
	}
}

func TestSentinelMapping(t *testing.T) {
	// Handler katmanının güvendiği sınıflandırma: her ön koşul ihlali
	// errors.Is ile yakalanabilir bir sentinel'e sarılı olmalı.
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetUser(ctx, 42)
	assert.True(t, errors.Is(err, pkg.ErrNotRegistered))
}
