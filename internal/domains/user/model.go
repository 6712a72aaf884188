package user

import (
	"time"

	"github.com/google/uuid"
)

// User là domain entity - ánh xạ 1:1 với bảng users trong DB
type User struct {
	// Identity
	ID       uuid.UUID `db:"id" json:"id"`
	Username string    `db:"username" json:"username"`
	Email    string    `db:"email" json:"email"`

	// Authentication
	PasswordHash string `db:"password_hash" json:"-"` // Never expose in JSON

	IsActive bool `db:"is_active" json:"is_active"`

	// Preferences là free-form JSONB: UI settings, default view, theme.
	// Server chỉ lưu và trả về, không diễn giải nội dung.
	Preferences map[string]interface{} `db:"preferences" json:"preferences"`

	// Timestamps
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Sanitize removes sensitive data before sending to client
func (u *User) Sanitize() {
	u.PasswordHash = ""
}
