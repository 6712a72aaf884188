package model

import (
	"errors"
	"log"
	"net/http"

	"github.com/Eoic/Shelf/internal/shared/response"
	"github.com/gin-gonic/gin"
)

var (
	ErrShelfNotFound = errors.New("shelf not found")
	// ErrBookNotFound - book id không tồn tại hoặc không thuộc user
	ErrBookNotFound = errors.New("book not found")
	// Membership là idempotency-checked: add lần hai / remove khi vắng mặt
	// là lỗi tường minh, không phải silent no-op
	ErrBookAlreadyOnShelf = errors.New("book is already on this shelf")
	ErrBookNotOnShelf     = errors.New("book is not on this shelf")
)

var shelfErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrShelfNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "Shelf not found",
	},
	ErrBookNotFound: {
		Status:  http.StatusNotFound,
		Code:    "BOOK_NOT_FOUND",
		Message: "Book not found",
	},
	ErrBookAlreadyOnShelf: {
		Status:  http.StatusConflict,
		Code:    "ALREADY_ON_SHELF",
		Message: "Book is already on this shelf",
	},
	ErrBookNotOnShelf: {
		Status:  http.StatusNotFound,
		Code:    "NOT_ON_SHELF",
		Message: "Book is not on this shelf",
	},
}

// HandleShelfError map domain error sang HTTP response. Trả về true nếu err != nil.
func HandleShelfError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	for sentinel, config := range shelfErrorMap {
		if errors.Is(err, sentinel) {
			response.ErrorResponse(c, config.Status, config.Code, config.Message)
			return true
		}
	}

	log.Printf("[Handler] Shelf error: %v", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
