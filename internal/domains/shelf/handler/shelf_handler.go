package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Eoic/Shelf/internal/domains/shelf/model"
	"github.com/Eoic/Shelf/internal/domains/shelf/service"
	"github.com/Eoic/Shelf/internal/shared/middleware"
	"github.com/Eoic/Shelf/internal/shared/response"
)

// ShelfHandler - HTTP handler cho shelf endpoints
type ShelfHandler struct {
	service service.ServiceInterface
}

// NewShelfHandler - Constructor with DI
func NewShelfHandler(service service.ServiceInterface) *ShelfHandler {
	return &ShelfHandler{
		service: service,
	}
}

// Create - POST /v1/shelves
func (h *ShelfHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	var req model.ShelfCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request data")
		return
	}

	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, "Invalid shelf data", err)
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, &req)
	if model.HandleShelfError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// List - GET /v1/shelves
func (h *ShelfHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	result, err := h.service.List(c.Request.Context(), userID)
	if model.HandleShelfError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetByID - GET /v1/shelves/:id
func (h *ShelfHandler) GetByID(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), userID, c.Param("id"))
	if model.HandleShelfError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Update - PUT /v1/shelves/:id
func (h *ShelfHandler) Update(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	var req model.ShelfUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request data")
		return
	}

	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, "Invalid shelf data", err)
		return
	}

	result, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if model.HandleShelfError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Delete - DELETE /v1/shelves/:id
func (h *ShelfHandler) Delete(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	err := h.service.Delete(c.Request.Context(), userID, c.Param("id"))
	if model.HandleShelfError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Shelf deleted"})
}

// AddBook - POST /v1/shelves/:id/books/:bookID
func (h *ShelfHandler) AddBook(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	err := h.service.AddBook(c.Request.Context(), userID, c.Param("id"), c.Param("bookID"))
	if model.HandleShelfError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": "Book added to shelf"})
}

// RemoveBook - DELETE /v1/shelves/:id/books/:bookID
func (h *ShelfHandler) RemoveBook(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	err := h.service.RemoveBook(c.Request.Context(), userID, c.Param("id"), c.Param("bookID"))
	if model.HandleShelfError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Book removed from shelf"})
}
