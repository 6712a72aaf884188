package handler

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	service "github.com/Eoic/Shelf/internal/domains/book/service"
	"github.com/Eoic/Shelf/internal/shared/middleware"
	"github.com/Eoic/Shelf/internal/shared/response"
	"github.com/Eoic/Shelf/internal/shared/utils"
)

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler - HTTP Handler (single file)
type Handler struct {
	service service.ServiceInterface
}

// NewHandler - Constructor with DI
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{
		service: service,
	}
}

// UploadBook - POST /v1/books
// Multipart upload. Accept file, trả về queued record ngay - ingestion
// chạy background, client theo dõi qua status endpoint.
func (h *Handler) UploadBook(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	// 1. Parse multipart form và lấy file "file"
	file, err := c.FormFile("file")
	if err != nil {
		log.Printf("[Handler] Failed to get file from request: %v", err)
		response.BadRequest(c, "file is required (multipart/form-data)")
		return
	}
	if file.Filename == "" {
		response.BadRequest(c, "Uploaded file must have a filename")
		return
	}

	// 2. Accept upload - tạo placeholder + enqueue ingestion
	result, err := h.service.UploadBook(c.Request.Context(), userID, file)
	if model.HandleBookError(c, err) {
		return
	}

	// 3. Trả về 201 với id để client poll status
	response.Success(c, http.StatusCreated, result)
}

// ListBooks - GET /v1/books
// Query params: skip, limit, q (search title/description), tag
func (h *Handler) ListBooks(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	var req model.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	req.Normalize()

	result, err := h.service.ListBooks(c.Request.Context(), userID, req)
	if model.HandleBookError(c, err) {
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Items, &response.Meta{
		Skip:  req.Skip,
		Limit: req.Limit,
		Total: result.Total,
	})
}

// GetBook - GET /v1/books/:id
func (h *Handler) GetBook(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	id := c.Param("id")
	if !utils.ValidID(id) {
		response.BadRequest(c, "Invalid book id")
		return
	}

	book, err := h.service.GetBook(c.Request.Context(), userID, id)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, book)
}

// UpdateBook - PUT /v1/books/:id
func (h *Handler) UpdateBook(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	id := c.Param("id")
	if !utils.ValidID(id) {
		response.BadRequest(c, "Invalid book id")
		return
	}

	// 1. Bind request
	var req model.BookUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[Handler] Invalid update book request: %v", err)
		response.BadRequest(c, "Invalid request data")
		return
	}

	// 2. Business validation
	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, "Invalid book metadata", err)
		return
	}

	// 3. Call service
	book, err := h.service.UpdateBook(c.Request.Context(), userID, id, req)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, book)
}

// DeleteBook - DELETE /v1/books/:id
// Storage được giải phóng trước khi xóa row - service abort nếu xóa file fail.
func (h *Handler) DeleteBook(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	id := c.Param("id")
	if !utils.ValidID(id) {
		response.BadRequest(c, "Invalid book id")
		return
	}

	err := h.service.DeleteBook(c.Request.Context(), userID, id)
	if model.HandleBookError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// GetBookStatus - GET /v1/books/:id/status
// Polling endpoint cho ingestion progress
func (h *Handler) GetBookStatus(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	id := c.Param("id")
	if !utils.ValidID(id) {
		response.BadRequest(c, "Invalid book id")
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), userID, id)
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, status)
}

// DownloadBook - GET /v1/books/:id/download
// Stream original file với original filename. Remote backend → temp copy
// bị xóa sau khi response ghi xong.
func (h *Handler) DownloadBook(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	id := c.Param("id")
	if !utils.ValidID(id) {
		response.BadRequest(c, "Invalid book id")
		return
	}

	delivery, err := h.service.ResolveBookFile(c.Request.Context(), userID, id)
	if model.HandleBookError(c, err) {
		return
	}

	if delivery.Cleanup {
		defer func() {
			if err := os.Remove(delivery.Path); err != nil {
				log.Printf("[Handler] Failed to remove temp download copy %s: %v", delivery.Path, err)
			}
		}()
	}

	c.Header("Content-Type", delivery.MediaType)
	c.FileAttachment(delivery.Path, delivery.Filename)
}

// GetBookCover - GET /v1/books/:id/cover?variant=original|thumbnail
func (h *Handler) GetBookCover(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	id := c.Param("id")
	if !utils.ValidID(id) {
		response.BadRequest(c, "Invalid book id")
		return
	}

	delivery, err := h.service.ResolveCover(c.Request.Context(), userID, id, c.Query("variant"))
	if model.HandleBookError(c, err) {
		return
	}

	if delivery.Cleanup {
		defer func() {
			if err := os.Remove(delivery.Path); err != nil {
				log.Printf("[Handler] Failed to remove temp cover copy %s: %v", delivery.Path, err)
			}
		}()
	}

	c.Header("Content-Type", delivery.MediaType)
	c.File(delivery.Path)
}

// ExportBooks - GET /v1/books/export
// Toàn bộ library của user dưới dạng xlsx
func (h *Handler) ExportBooks(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	f, err := h.service.ExportBooksToExcel(c.Request.Context(), userID)
	if model.HandleBookError(c, err) {
		return
	}

	c.Header("Content-Type", excelContentType)
	c.Header("Content-Disposition", `attachment; filename="books.xlsx"`)

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[Handler] Failed to stream excel export: %v", err)
	}
}
