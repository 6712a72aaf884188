package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa contract cho data access layer
// Interface này cho phép:
// - Swap implementation dễ dàng
// - Mock trong unit tests
type Repository interface {
	// Create tạo user mới
	// Returns: ErrEmailAlreadyExists / ErrUsernameAlreadyExists khi trùng
	Create(ctx context.Context, user *User) error

	// FindByID tìm user theo ID
	// Returns: ErrUserNotFound nếu không tìm thấy
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsernameOrEmail tìm user cho login - match cả hai cột
	FindByUsernameOrEmail(ctx context.Context, login string) (*User, error)

	// UpdatePreferences replace preferences JSONB của user
	UpdatePreferences(ctx context.Context, id uuid.UUID, preferences map[string]interface{}) error

	// ExistsByEmail kiểm tra email đã tồn tại chưa
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername kiểm tra username đã tồn tại chưa
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
