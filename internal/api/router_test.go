package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"authgate/internal/api"
	"authgate/internal/app/ratelimit"
	"authgate/internal/app/service"
	"authgate/internal/common"
	"authgate/internal/common/security"
	"authgate/internal/domain/model"
	"authgate/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory repository fakes -----------------------------------------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return fmt.Errorf("duplicate username: %w", common.ErrConflict)
	}
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]*model.Item
}

func (r *fakeItemRepo) Create(_ context.Context, item *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeItemRepo) FindByID(_ context.Context, id string) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (r *fakeItemRepo) List(_ context.Context) ([]model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Item{}
	for _, item := range r.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeItemRepo) ListFiltered(ctx context.Context, filter repository.ItemFilter) ([]model.Item, int, error) {
	all, _ := r.List(ctx)
	filtered := []model.Item{}
	for _, item := range all {
		if filter.OwnerID != "" && item.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(item.Title), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(item.Description), strings.ToLower(filter.Search)) {
			continue
		}
		filtered = append(filtered, item)
	}
	total := len(filtered)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (r *fakeItemRepo) Update(_ context.Context, item *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return common.ErrNotFound
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeItemRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeFileRepo struct {
	mu    sync.Mutex
	files map[string]*model.StoredFile
}

func (r *fakeFileRepo) Create(_ context.Context, file *model.StoredFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *file
	r.files[file.ID] = &copied
	return nil
}

func (r *fakeFileRepo) FindByID(_ context.Context, id string) (*model.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *file
	return &copied, nil
}

func (r *fakeFileRepo) ListByOwner(_ context.Context, ownerID string) ([]model.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.StoredFile{}
	for _, file := range r.files {
		if file.OwnerID == ownerID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) Update(_ context.Context, file *model.StoredFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[file.ID]; !ok {
		return common.ErrNotFound
	}
	copied := *file
	r.files[file.ID] = &copied
	return nil
}

func (r *fakeFileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

// --- harness -------------------------------------------------------------

type testEnv struct {
	router http.Handler
	tokens *security.Tokens
}

func newTestEnv(t *testing.T, maxRequests int) *testEnv {
	t.Helper()

	tokens := security.NewTokens("HS256", []byte("router-test-key"), time.Hour, 0)
	hasher := security.NewPasswordHasher(4)

	uploadDir := t.TempDir()
	authService := service.NewAuthService(&fakeUserRepo{users: map[string]*model.User{}}, hasher, tokens)
	itemService := service.NewItemService(&fakeItemRepo{items: map[string]*model.Item{}})
	fileService := service.NewFileService(&fakeFileRepo{files: map[string]*model.StoredFile{}}, uploadDir)

	limiter := ratelimit.NewMemoryStore(
		ratelimit.Config{MaxRequests: maxRequests, Window: 60 * time.Second}, 1000)

	return &testEnv{
		router: api.NewRouter(authService, itemService, fileService, limiter, uploadDir),
		tokens: tokens,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username, role string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/register", "", service.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "pass-" + username, Role: role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", "", service.LoginRequest{
		Username: username, Password: "pass-" + username,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

// --- tests ---------------------------------------------------------------

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t, 1000)

	env.register(t, "alice", "")
	token := env.login(t, "alice")

	rec := env.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, model.RoleUser, me.Role)

	assert.Equal(t, "1.0.0", rec.Header().Get("X-API-Version"))
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t, 1000)

	env.register(t, "alice", "")
	rec := env.do(t, http.MethodPost, "/register", "", service.RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.register(t, "alice", "")

	wrongPassword := env.do(t, http.MethodPost, "/login", "", service.LoginRequest{Username: "alice", Password: "nope"})
	unknownUser := env.do(t, http.MethodPost, "/login", "", service.LoginRequest{Username: "ghost", Password: "nope"})

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownUser.Code)
	// No username enumeration through the response body.
	assert.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Contains(t, wrongPassword.Body.String(), "Invalid username or password")
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.register(t, "alice", "")

	rec := env.do(t, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing token")

	rec = env.do(t, http.MethodGet, "/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "malformed token")

	expired, err := env.tokens.Issue("alice", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/me", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "expired token")

	orphan, err := env.tokens.Issue("nobody", time.Now())
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/me", orphan, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "valid token, unknown subject")
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.register(t, "alice", "")
	token := env.login(t, "alice")

	rec := env.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard Data")
	assert.Contains(t, rec.Body.String(), "alice")
}

func TestAdminRoute(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.register(t, "alice", "")
	env.register(t, "root", "admin")

	userToken := env.login(t, "alice")
	adminToken := env.login(t, "root")

	rec := env.do(t, http.MethodGet, "/admin", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/admin", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello Admin!")

	rec = env.do(t, http.MethodGet, "/admin", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestItemOwnershipAndRoles(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.register(t, "alice", "")
	env.register(t, "bob", "")
	env.register(t, "root", "admin")

	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")
	adminToken := env.login(t, "root")

	rec := env.do(t, http.MethodPost, "/items", aliceToken, service.ItemRequest{Title: "notebook", Description: "plain"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item model.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))

	// Listing is public.
	rec = env.do(t, http.MethodGet, "/items", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notebook")

	// Only the owner edits.
	rec = env.do(t, http.MethodPut, "/items/"+item.ID, bobToken, service.ItemRequest{Title: "stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPut, "/items/"+item.ID, aliceToken, service.ItemRequest{Title: "notebook v2", Description: "ruled"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Only admins delete, and they may delete anyone's item.
	rec = env.do(t, http.MethodDelete, "/items/"+item.ID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, "/items/"+item.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/items/"+item.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "already deleted")
}

func TestItemsAdvancedPagination(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.register(t, "alice", "")
	token := env.login(t, "alice")

	for i := 0; i < 12; i++ {
		rec := env.do(t, http.MethodPost, "/items", token, service.ItemRequest{
			Title: fmt.Sprintf("widget %02d", i), Description: "inventory",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/items/advanced?page=2&limit=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page service.ItemPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 12, page.Total)
	assert.Len(t, page.Items, 2)

	rec = env.do(t, http.MethodGet, "/items/advanced?search=widget+03", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	rec = env.do(t, http.MethodGet, "/items/advanced", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "advanced listing requires identity")
}

func TestRateLimitExhaustion(t *testing.T) {
	env := newTestEnv(t, 10)

	for i := 0; i < 10; i++ {
		rec := env.do(t, http.MethodGet, "/", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message": "Too many requests"}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-API-Version"),
		"the 429 short-circuit skips the informational headers")

	// A different source address has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.9.8.7:4321"
	fresh := httptest.NewRecorder()
	env.router.ServeHTTP(fresh, req)
	assert.Equal(t, http.StatusOK, fresh.Code)
}

func TestRateLimitAppliesBeforeAuth(t *testing.T) {
	env := newTestEnv(t, 2)
	env.register(t, "alice", "")
	token := env.login(t, "alice")

	// Budget is already spent by the two calls above; even a valid token
	// cannot get past the limiter.
	rec := env.do(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestFileUploadLifecycle(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.register(t, "alice", "")
	env.register(t, "bob", "")
	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")

	rec := env.doUpload(t, "/upload", "uploaded_file", "report.txt", "hello world", aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var record model.StoredFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "report.txt", record.OriginalName)
	assert.NotEqual(t, "report.txt", record.Filename, "stored name is generated")

	rec = env.do(t, http.MethodGet, "/my-files", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), record.ID)

	rec = env.do(t, http.MethodGet, "/my-files", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), record.ID, "files are listed per owner")

	rec = env.do(t, http.MethodDelete, "/file/"+record.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/file/"+record.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func (e *testEnv) doUpload(t *testing.T, path, field, filename, content, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
