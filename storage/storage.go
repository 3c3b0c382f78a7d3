// Package storage, record store'un durable backing'ini yönetir: üç dosyayı
// okuyup yazan codec.
//
// Dosyalar (front end'in öteden beri kullandığı format — değiştirilemez):
//   - config.json — {"admins": [id, ...]}
//   - users.csv   — user_id,username,banned,license,plan,expiry_date
//   - bans.csv    — user_id,reason,banned_by,created_at
//
// Codec sözleşmesi:
//   - Load, durable state'in TAMAMINI bir *State olarak döner. Dosya yoksa
//     o kaynak boş başlar. Dosya bozuksa loglanır ve o kaynak boş state'e
//     reinitialize edilir — ASLA kısmi veri merge edilmez, caller'a hata
//     yükseltilmez. Sadece gerçek I/O hataları (izin, disk) döner.
//   - Save, state'in tamamını yazar (delta değil). Her dosya temp dosyaya
//     yazılıp os.Rename ile yerine konur — rename POSIX'te atomiktir,
//     yarıda kesilen bir save eski ve yeni satırları karıştıramaz.
//
// Not: "banned" kolonu ban listesinden türetilir. Save hesaplayıp yazar,
// Load yok sayar — tek mutable kaynak ban listesidir.
package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/pkg/license"
)

// usersHeader, users.csv'nin zorunlu başlık satırı.
var usersHeader = []string{"user_id", "username", "banned", "license", "plan", "expiry_date"}

// bansHeader, bans.csv'nin zorunlu başlık satırı.
var bansHeader = []string{"user_id", "reason", "banned_by", "created_at"}

// State, store'un bellekteki tam hali.
//
// Users slice'ı users.csv satır sırasını korur — bu sıra kayıt (insertion)
// sırasıdır ve tüm listelemeler bu sırayla döner. Admins da config.json'daki
// sırayı korur.
type State struct {
	Admins []int64
	Users  []models.UserRecord
	Bans   []models.Ban
}

// UserIndex, verilen ID'nin Users içindeki index'ini döner; yoksa -1.
func (s *State) UserIndex(userID int64) int {
	for i := range s.Users {
		if s.Users[i].UserID == userID {
			return i
		}
	}
	return -1
}

// BanIndex, verilen ID'nin Bans içindeki index'ini döner; yoksa -1.
func (s *State) BanIndex(userID int64) int {
	for i := range s.Bans {
		if s.Bans[i].UserID == userID {
			return i
		}
	}
	return -1
}

// AdminIndex, verilen ID'nin Admins içindeki index'ini döner; yoksa -1.
func (s *State) AdminIndex(userID int64) int {
	for i, id := range s.Admins {
		if id == userID {
			return i
		}
	}
	return -1
}

// IsBanned, ID'nin ban listesinde olup olmadığını döner.
func (s *State) IsBanned(userID int64) bool {
	return s.BanIndex(userID) >= 0
}

// HasLicense, verilen kodun herhangi bir kayıtta kullanımda olup
// olmadığını döner. İssueLicense'ın collision retry'ı için.
func (s *State) HasLicense(code string) bool {
	for i := range s.Users {
		if s.Users[i].License == code {
			return true
		}
	}
	return false
}

// configFile, config.json'ın JSON şekli.
type configFile struct {
	Admins []int64 `json:"admins"`
}

// Files, üç store dosyasının yollarını bilen codec.
type Files struct {
	configPath string
	usersPath  string
	bansPath   string
}

// NewFiles, codec'i oluşturur: dizinleri açar ve eksik dosyaları boş
// default'larla tohumlar — "ilk erişimde yoktan oluşturma" davranışı.
func NewFiles(configPath, usersPath, bansPath string) (*Files, error) {
	f := &Files{
		configPath: configPath,
		usersPath:  usersPath,
		bansPath:   bansPath,
	}

	for _, p := range []string{configPath, usersPath, bansPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Eksik dosyaları boş state ile tohumla. Var olanlara dokunulmaz.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := f.saveConfig(nil); err != nil {
			return nil, fmt.Errorf("failed to seed config file: %w", err)
		}
		log.Printf("[storage] seeded empty config: %s", configPath)
	}
	if _, err := os.Stat(usersPath); os.IsNotExist(err) {
		if err := f.saveUsers(nil, nil); err != nil {
			return nil, fmt.Errorf("failed to seed users file: %w", err)
		}
		log.Printf("[storage] seeded empty users file: %s", usersPath)
	}
	if _, err := os.Stat(bansPath); os.IsNotExist(err) {
		if err := f.saveBans(nil); err != nil {
			return nil, fmt.Errorf("failed to seed bans file: %w", err)
		}
		log.Printf("[storage] seeded empty bans file: %s", bansPath)
	}

	return f, nil
}

// Load, durable state'in tamamını okur.
// Bozuk bir kaynak loglanır ve boş başlatılır; hata sadece I/O için döner.
func (f *Files) Load() (*State, error) {
	admins, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	users, err := f.loadUsers()
	if err != nil {
		return nil, err
	}
	bans, err := f.loadBans()
	if err != nil {
		return nil, err
	}

	state := &State{Admins: admins, Users: users, Bans: bans}

	// Banned alanı load'da türetilir — CSV'deki kolon değeri yok sayılmıştır.
	for i := range state.Users {
		state.Users[i].Banned = state.IsBanned(state.Users[i].UserID)
	}

	return state, nil
}

// Save, state'in tamamını yazar. Başarı dönmeden tüm kaynaklar diske
// inmiştir — persistence caller'a göre synchronous'tur.
func (f *Files) Save(state *State) error {
	banned := make(map[int64]bool, len(state.Bans))
	for i := range state.Bans {
		banned[state.Bans[i].UserID] = true
	}

	if err := f.saveConfig(state.Admins); err != nil {
		return err
	}
	if err := f.saveUsers(state.Users, banned); err != nil {
		return err
	}
	return f.saveBans(state.Bans)
}

// ─── config.json ───

func (f *Files) loadConfig() ([]int64, error) {
	data, err := os.ReadFile(f.configPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cf configFile
	if err := json.Unmarshal(data, &cf); err != nil {
		log.Printf("[storage] %v: %s: %v — reinitializing to empty", pkg.ErrMalformedStorage, f.configPath, err)
		return nil, nil
	}
	return cf.Admins, nil
}

func (f *Files) saveConfig(admins []int64) error {
	cf := configFile{Admins: admins}
	if cf.Admins == nil {
		cf.Admins = []int64{} // JSON'da null değil [] yazılsın
	}

	data, err := json.MarshalIndent(cf, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return writeAtomic(f.configPath, append(data, '\n'))
}

// ─── users.csv ───

func (f *Files) loadUsers() ([]models.UserRecord, error) {
	file, err := os.Open(f.usersPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		log.Printf("[storage] %v: %s: %v — reinitializing to empty", pkg.ErrMalformedStorage, f.usersPath, err)
		return nil, nil
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if !equalRow(rows[0], usersHeader) {
		log.Printf("[storage] %v: %s: unexpected header %v — reinitializing to empty", pkg.ErrMalformedStorage, f.usersPath, rows[0])
		return nil, nil
	}

	users := make([]models.UserRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		userID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			// Tek bozuk satır tüm kaynağı geçersiz kılar — kısmi merge yok.
			log.Printf("[storage] %v: %s: bad user_id %q — reinitializing to empty", pkg.ErrMalformedStorage, f.usersPath, row[0])
			return nil, nil
		}
		plan := models.Plan(row[4])
		if row[4] == "" {
			plan = models.PlanNone
		}
		if !plan.Valid() {
			log.Printf("[storage] %v: %s: bad plan %q — reinitializing to empty", pkg.ErrMalformedStorage, f.usersPath, row[4])
			return nil, nil
		}
		if row[3] != "" && !license.Valid(row[3]) {
			log.Printf("[storage] %v: %s: bad license code %q — reinitializing to empty", pkg.ErrMalformedStorage, f.usersPath, row[3])
			return nil, nil
		}
		users = append(users, models.UserRecord{
			UserID:     userID,
			Username:   row[1],
			License:    row[3],
			Plan:       plan,
			ExpiryDate: row[5],
			// Banned: load sonrası ban listesinden türetilir
		})
	}
	return users, nil
}

func (f *Files) saveUsers(users []models.UserRecord, banned map[int64]bool) error {
	rows := make([][]string, 0, len(users)+1)
	rows = append(rows, usersHeader)
	for i := range users {
		u := &users[i]
		rows = append(rows, []string{
			strconv.FormatInt(u.UserID, 10),
			u.Username,
			strconv.FormatBool(banned[u.UserID]),
			u.License,
			string(u.Plan),
			u.ExpiryDate,
		})
	}
	return writeAtomicCSV(f.usersPath, rows)
}

// ─── bans.csv ───

func (f *Files) loadBans() ([]models.Ban, error) {
	file, err := os.Open(f.bansPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bans file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		log.Printf("[storage] %v: %s: %v — reinitializing to empty", pkg.ErrMalformedStorage, f.bansPath, err)
		return nil, nil
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if !equalRow(rows[0], bansHeader) {
		log.Printf("[storage] %v: %s: unexpected header %v — reinitializing to empty", pkg.ErrMalformedStorage, f.bansPath, rows[0])
		return nil, nil
	}

	bans := make([]models.Ban, 0, len(rows)-1)
	for _, row := range rows[1:] {
		userID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			log.Printf("[storage] %v: %s: bad user_id %q — reinitializing to empty", pkg.ErrMalformedStorage, f.bansPath, row[0])
			return nil, nil
		}
		bannedBy, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			log.Printf("[storage] %v: %s: bad banned_by %q — reinitializing to empty", pkg.ErrMalformedStorage, f.bansPath, row[2])
			return nil, nil
		}
		createdAt, err := time.Parse(time.RFC3339, row[3])
		if err != nil {
			log.Printf("[storage] %v: %s: bad created_at %q — reinitializing to empty", pkg.ErrMalformedStorage, f.bansPath, row[3])
			return nil, nil
		}
		bans = append(bans, models.Ban{
			UserID:    userID,
			Reason:    row[1],
			BannedBy:  bannedBy,
			CreatedAt: createdAt,
		})
	}
	return bans, nil
}

func (f *Files) saveBans(bans []models.Ban) error {
	rows := make([][]string, 0, len(bans)+1)
	rows = append(rows, bansHeader)
	for i := range bans {
		b := &bans[i]
		rows = append(rows, []string{
			strconv.FormatInt(b.UserID, 10),
			b.Reason,
			strconv.FormatInt(b.BannedBy, 10),
			b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return writeAtomicCSV(f.bansPath, rows)
}

// ─── atomic write helper'ları ───

// writeAtomic, data'yı path'e temp dosya + rename ile yazar.
// Rename aynı dosya sistemi içinde atomiktir — okuyucular ya eski
// dosyanın tamamını ya yeni dosyanın tamamını görür, karışımını asla.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func writeAtomicCSV(path string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode csv: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
