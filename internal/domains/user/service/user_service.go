package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Eoic/Shelf/internal/domains/user"
	"github.com/Eoic/Shelf/pkg/jwt"
)

// bcryptCost = 12: balance giữa security và login latency
const bcryptCost = 12

// userService implement user.Service interface
type userService struct {
	repo       user.Repository
	jwtManager *jwt.Manager
	accessTTL  time.Duration
}

// NewUserService tạo service instance, inject repository qua constructor
func NewUserService(repo user.Repository, jwtManager *jwt.Manager, accessTTL time.Duration) user.Service {
	return &userService{
		repo:       repo,
		jwtManager: jwtManager,
		accessTTL:  accessTTL,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

// Register tạo account mới
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. BUSINESS RULE: username/email chưa tồn tại.
	// Check trước cho error message rõ ràng; unique constraints trong DB
	// vẫn là guard cuối cùng.
	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username exists: %w", err)
	}
	if exists {
		return nil, user.ErrUsernameAlreadyExists
	}

	exists, err = s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	// 3. HASH PASSWORD
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. CREATE USER ENTITY
	now := time.Now()
	newUser := &user.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		IsActive:     true,
		Preferences:  map[string]interface{}{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 5. PERSIST TO DATABASE
	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	dto := newUser.ToDTO()
	return &dto, nil
}

// Login xác thực user và trả về JWT tokens
func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. FIND USER - không expose "user not found" vs "wrong password"
	u, err := s.repo.FindByUsernameOrEmail(ctx, req.Username)
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	// 3. CHECK USER STATUS
	if !u.IsActive {
		return nil, user.ErrUserInactive
	}

	// 4. VERIFY PASSWORD (constant-time comparison)
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	return s.issueTokens(u)
}

// RefreshToken đổi refresh token hợp lệ lấy cặp token mới
func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*user.LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, user.ErrInvalidToken
	}
	if !u.IsActive {
		return nil, user.ErrUserInactive
	}

	return s.issueTokens(u)
}

func (s *userService) issueTokens(u *user.User) (*user.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Username, u.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &user.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.accessTTL),
		User:         u.ToDTO(),
	}, nil
}

// ========================================
// USER PROFILE
// ========================================

// GetProfile lấy thông tin user hiện tại
func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := u.ToDTO()
	return &dto, nil
}

// UpdatePreferences replace toàn bộ preferences object của user
func (s *userService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req user.UpdatePreferencesRequest) (*user.UserDTO, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. PERSIST
	if err := s.repo.UpdatePreferences(ctx, userID, req.Preferences); err != nil {
		return nil, err
	}

	// 3. RETURN UPDATED DTO
	return s.GetProfile(ctx, userID)
}
