package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"authgate/internal/common"
	"authgate/internal/common/security"
	"authgate/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*model.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return fmt.Errorf("duplicate username: %w", common.ErrConflict)
	}
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
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

func newTestAuthService() (*AuthService, *memUserRepo) {
	repo := newMemUserRepo()
	hasher := security.NewPasswordHasher(4)
	tokens := security.NewTokens("HS256", []byte("auth-service-test-key"), time.Hour, 0)
	return NewAuthService(repo, hasher, tokens), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "wonderland",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role, "role defaults to user")
	assert.Empty(t, user.HashedPassword, "hash never leaves the service")

	resp, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	cases := []RegisterRequest{
		{Username: "", Email: "a@b.c", Password: "pw"},
		{Username: "alice", Email: "", Password: "pw"},
		{Username: "alice", Email: "a@b.c", Password: ""},
		{Username: "has space", Email: "a@b.c", Password: "pw"},
		{Username: "alice", Email: "a@b.c", Password: "pw", Role: "superuser"},
	}
	for _, req := range cases {
		_, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, common.ErrValidation, "request %+v", req)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice", Email: "other@b.c", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "a@b.c", Password: "wonderland"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Username: "alice", Password: "nope"})
	_, unknownUser := svc.Login(ctx, LoginRequest{Username: "bob", Password: "nope"})

	assert.ErrorIs(t, wrongPassword, common.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, common.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error(),
		"wrong password and unknown user must collapse to the same error")
}

func TestCurrentUser(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "a@b.c", Password: "wonderland"})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)

	user, err := svc.CurrentUser(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Valid token whose subject vanished from the store.
	repo.mu.Lock()
	delete(repo.users, "alice")
	repo.mu.Unlock()

	_, err = svc.CurrentUser(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = svc.CurrentUser(ctx, "not-a-token")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRequireRole(t *testing.T) {
	svc, _ := newTestAuthService()

	admin := &model.User{Role: model.RoleAdmin}
	user := &model.User{Role: model.RoleUser}

	assert.NoError(t, svc.RequireRole(admin, model.RoleAdmin))
	assert.ErrorIs(t, svc.RequireRole(user, model.RoleAdmin), common.ErrForbidden)
	assert.ErrorIs(t, svc.RequireRole(nil, model.RoleAdmin), common.ErrForbidden)
}
