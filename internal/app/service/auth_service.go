package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authgate/internal/common"
	"authgate/internal/common/security"
	"authgate/internal/domain/model"
	"authgate/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	tokens *security.Tokens
}

func NewAuthService(users repository.UserRepository, hasher security.PasswordHasher, tokens *security.Tokens) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("username, email and password are required: %w", common.ErrValidation)
	}
	if strings.Contains(req.Username, " ") {
		return nil, fmt.Errorf("username cannot contain spaces: %w", common.ErrValidation)
	}

	role := model.RoleUser
	if req.Role != "" {
		var err error
		if role, err = model.ParseRole(req.Role); err != nil {
			return nil, fmt.Errorf("%v: %w", err, common.ErrValidation)
		}
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
		Role:           role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("username already taken: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.HashedPassword = ""
	return user, nil
}

// Login verifies credentials and issues a bearer token. Unknown username
// and wrong password are deliberately indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// CurrentUser validates the bearer token and resolves its subject through
// the user store. A valid token whose subject no longer exists yields
// common.ErrUserNotFound.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (*model.User, error) {
	subject, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	return user, nil
}

// RequireRole enforces an exact role match; there is no hierarchy.
func (s *AuthService) RequireRole(user *model.User, role model.Role) error {
	if user == nil || user.Role != role {
		return common.ErrForbidden
	}
	return nil
}
