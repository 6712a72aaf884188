package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ShelfCreateRequest - tạo shelf mới
type ShelfCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func (r ShelfCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 255),
		),
		validation.Field(&r.Description,
			validation.When(r.Description != nil, validation.Length(0, 2000)),
		),
	)
}

// ShelfUpdateRequest - partial update, nil field nghĩa là giữ nguyên
type ShelfUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r ShelfUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(r.Name != nil, validation.Length(1, 255)),
		),
		validation.Field(&r.Description,
			validation.When(r.Description != nil, validation.Length(0, 2000)),
		),
	)
}

// ShelfResponse - public representation
type ShelfResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	BookIDs     []string  `json:"book_ids"`
	BookCount   int       `json:"book_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListShelvesResponse - toàn bộ shelves của user (số lượng nhỏ, không paginate)
type ListShelvesResponse struct {
	Total int              `json:"total"`
	Items []*ShelfResponse `json:"items"`
}
