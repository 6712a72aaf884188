package user

import (
	"context"

	"github.com/google/uuid"
)

// Service định nghĩa business logic layer contract
type Service interface {
	// Authentication
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*LoginResponse, error)

	// User Profile
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, req UpdatePreferencesRequest) (*UserDTO, error)
}
