package model

import (
	"errors"
	"log"
	"net/http"

	"github.com/Eoic/Shelf/internal/shared/response"
	"github.com/gin-gonic/gin"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrDuplicateHash  = errors.New("book with the same content already exists")
	ErrBookNotReady   = errors.New("book file is not available yet")
	ErrFileNotFound   = errors.New("book file not found")
	ErrCoverNotFound  = errors.New("cover image not found")
	ErrTerminalStatus = errors.New("book is already in a terminal status")
	ErrDatabaseQuery  = errors.New("database query error")
)

var bookErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrBookNotFound: {
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "Book not found",
	},
	ErrDuplicateHash: {
		Status:  http.StatusConflict,
		Code:    "DUPLICATE_BOOK",
		Message: "A book with the same content already exists",
	},
	ErrBookNotReady: {
		Status:  http.StatusConflict,
		Code:    "NOT_READY",
		Message: "The book file is still being processed",
	},
	ErrFileNotFound: {
		Status:  http.StatusNotFound,
		Code:    "FILE_NOT_FOUND",
		Message: "Book file not found",
	},
	ErrCoverNotFound: {
		Status:  http.StatusNotFound,
		Code:    "COVER_NOT_FOUND",
		Message: "Cover image not found",
	},
}

// HandleBookError map domain error sang HTTP response. Trả về true nếu err != nil.
func HandleBookError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	for sentinel, config := range bookErrorMap {
		if errors.Is(err, sentinel) {
			response.ErrorResponse(c, config.Status, config.Code, config.Message)
			return true
		}
	}

	// Lỗi không xác định
	log.Printf("[Handler] Book error: %v", err)
	response.InternalServerError(c, "Internal server error")
	return true
}
