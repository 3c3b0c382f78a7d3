package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lisans/authz"
	"github.com/akinalp/lisans/models"
	"github.com/akinalp/lisans/pkg"
	"github.com/akinalp/lisans/repository"
	"github.com/akinalp/lisans/services"
	"github.com/akinalp/lisans/storage"
	"github.com/akinalp/lisans/ws"
)

const superAdminID int64 = 1000

// nopAudit, handler testlerinde audit trail'i boşa yazan stub.
type nopAudit struct{}

func (nopAudit) Record(context.Context, *models.AuditEntry) error { return nil }
func (nopAudit) ListByActor(context.Context, int64, int) ([]models.AuditEntry, error) {
	return nil, nil
}
func (nopAudit) ListByTarget(context.Context, int64, int) ([]models.AuditEntry, error) {
	return nil, nil
}

// nopHub, broadcast'leri yutan EventPublisher stub'u.
type nopHub struct{}

func (nopHub) BroadcastToAll(ws.Event)       {}
func (nopHub) BroadcastToUser(int64, ws.Event) {}
func (nopHub) OnlineUserIDs() []int64        { return nil }

type testServer struct {
	account *AccountHandler
	admin   *AdminHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFiles(
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "users.csv"),
		filepath.Join(dir, "bans.csv"),
	)
	require.NoError(t, err)

	records := repository.NewFileRecordRepo(files, models.PlanFree, nil)
	policy := authz.NewPolicy(superAdminID)
	accountService := services.NewAccountService(records, nopAudit{}, policy, nopHub{})
	adminService := services.NewAdminService(records, nopAudit{}, policy, nopHub{})

	return &testServer{
		account: NewAccountHandler(accountService),
		admin:   NewAdminHandler(adminService),
	}
}

// doRequest, auth middleware'ı taklit ederek actor'ü context'e koyar
// ve isteği verilen handler'dan geçirir.
func doRequest(t *testing.T, handler http.HandlerFunc, method, target string, actorID int64, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), ActorContextKey, actorID))
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()
	var resp pkg.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv.account.Register, http.MethodPost, "/api/account/register", 42, `{"username":"alice"}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	// Mükerrer kayıt → 409 Conflict
	rec = doRequest(t, srv.account.Register, http.MethodPost, "/api/account/register", 42, `{"username":"alice"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp = decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestRegisterEndpoint_BadBody(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`not json`, `{"username":""}`, `{}`} {
		rec := doRequest(t, srv.account.Register, http.MethodPost, "/api/account/register", 42, body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestMeEndpoint_NotRegistered(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv.account.Me, http.MethodGet, "/api/account", 42, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueLicenseEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv.account.Register, http.MethodPost, "/api/account/register", 42, `{"username":"alice"}`, nil)

	rec := doRequest(t, srv.account.IssueLicense, http.MethodPost, "/api/account/license", 42, "", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// İkinci istek → 409
	rec = doRequest(t, srv.account.IssueLicense, http.MethodPost, "/api/account/license", 42, "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetUserEndpoint_Authorization(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv.account.Register, http.MethodPost, "/api/account/register", 42, `{"username":"alice"}`, nil)

	// Başkasının kaydına normal kullanıcı bakamaz → 403
	rec := doRequest(t, srv.account.GetUser, http.MethodGet, "/api/users/42", 77, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Super admin bakar
	rec = doRequest(t, srv.account.GetUser, http.MethodGet, "/api/users/42", superAdminID, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Sayısal olmayan id → 400
	rec = doRequest(t, srv.account.GetUser, http.MethodGet, "/api/users/abc", superAdminID, "", map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBanEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// Admin olmayan → 403
	rec := doRequest(t, srv.admin.Ban, http.MethodPost, "/api/bans/42", 77, `{"reason":"spam"}`, map[string]string{"id": "42"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv.admin.Ban, http.MethodPost, "/api/bans/42", superAdminID, `{"reason":"spam"}`, map[string]string{"id": "42"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Zaten banlı → 409
	rec = doRequest(t, srv.admin.Ban, http.MethodPost, "/api/bans/42", superAdminID, `{"reason":"spam"}`, map[string]string{"id": "42"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, srv.admin.Unban, http.MethodDelete, "/api/bans/42", superAdminID, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Banlı değilken unban → 409
	rec = doRequest(t, srv.admin.Unban, http.MethodDelete, "/api/bans/42", superAdminID, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMutateUserEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv.account.Register, http.MethodPost, "/api/account/register", 42, `{"username":"alice"}`, nil)

	rec := doRequest(t, srv.admin.MutateUser, http.MethodPatch, "/api/users/42", superAdminID,
		`{"kind":"expiry_set","value":"20300101"}`, map[string]string{"id": "42"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Geçersiz tarih → 400
	rec = doRequest(t, srv.admin.MutateUser, http.MethodPatch, "/api/users/42", superAdminID,
		`{"kind":"expiry_set","value":"2030-01-01"}`, map[string]string{"id": "42"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bilinmeyen kind → 400
	rec = doRequest(t, srv.admin.MutateUser, http.MethodPatch, "/api/users/42", superAdminID,
		`{"kind":"explode"}`, map[string]string{"id": "42"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Kayıtlı olmayan hedef → 404
	rec = doRequest(t, srv.admin.MutateUser, http.MethodPatch, "/api/users/99", superAdminID,
		`{"kind":"license_clear"}`, map[string]string{"id": "99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doRequest(t, srv.account.Register, http.MethodPost, "/api/account/register", 42, `{"username":"alice"}`, nil)

	rec := doRequest(t, srv.admin.List, http.MethodGet, "/api/lists/users", superAdminID, "", map[string]string{"category": "users"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Bilinmeyen kategori → 400
	rec = doRequest(t, srv.admin.List, http.MethodGet, "/api/lists/frogs", superAdminID, "", map[string]string{"category": "frogs"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditTrailEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Admin değil → 403
	rec := doRequest(t, srv.admin.AuditTrail, http.MethodGet, "/api/audit/42", 7, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, srv.admin.AuditTrail, http.MethodGet, "/api/audit/42", superAdminID, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv.admin.AuditTrail, http.MethodGet, "/api/audit/42?by=actor&limit=5", superAdminID, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Geçersiz query parametreleri → 400
	rec = doRequest(t, srv.admin.AuditTrail, http.MethodGet, "/api/audit/42?by=kim", superAdminID, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv.admin.AuditTrail, http.MethodGet, "/api/audit/42?limit=-1", superAdminID, "", map[string]string{"id": "42"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
