package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Eoic/Shelf/internal/domains/storage/model"
	"github.com/Eoic/Shelf/internal/domains/storage/service"
	"github.com/Eoic/Shelf/internal/shared/middleware"
	"github.com/Eoic/Shelf/internal/shared/response"
	"github.com/Eoic/Shelf/internal/shared/utils"
)

type StorageHandler struct {
	service service.ServiceInterface
}

func NewStorageHandler(service service.ServiceInterface) *StorageHandler {
	return &StorageHandler{
		service: service,
	}
}

// CreateStorage handles POST /storage
func (h *StorageHandler) CreateStorage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	var req model.StorageCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		statusCode, code, message := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetStorageById handles GET /storage/:id
func (h *StorageHandler) GetStorageById(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	storageID, err := getStorageId(c)
	if err != nil {
		// Error response đã được gửi trong getStorageId
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), userID, storageID)
	if err != nil {
		statusCode, code, message := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListStorage handles GET /storage
func (h *StorageHandler) ListStorage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	result, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		statusCode, code, message := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// UpdateStorage handles PUT /storage/:id
func (h *StorageHandler) UpdateStorage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	storageID, err := getStorageId(c)
	if err != nil {
		return
	}

	var req model.StorageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	result, err := h.service.Update(c.Request.Context(), userID, storageID, &req)
	if err != nil {
		statusCode, code, message := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// DeleteStorage handles DELETE /storage/:id
func (h *StorageHandler) DeleteStorage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	storageID, err := getStorageId(c)
	if err != nil {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, storageID); err != nil {
		statusCode, code, message := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetDefaultStorage handles PUT /storage/:id/default
func (h *StorageHandler) SetDefaultStorage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	storageID, err := getStorageId(c)
	if err != nil {
		return
	}

	result, err := h.service.SetDefault(c.Request.Context(), userID, storageID)
	if err != nil {
		statusCode, code, message := model.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Helper: Get storage config ID from URL param
func getStorageId(c *gin.Context) (string, error) {
	id := c.Param("id")
	if !utils.ValidID(id) {
		notFound := model.NewStorageNotFound()
		statusCode, code, message := model.GetErrorResponse(notFound)
		response.ErrorResponse(c, statusCode, code, message)
		return "", notFound
	}

	return id, nil
}
