package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Eoic/Shelf/internal/domains/user"
	"github.com/Eoic/Shelf/internal/shared/middleware"
	"github.com/Eoic/Shelf/internal/shared/response"
)

// UserHandler - HTTP handler cho auth + profile endpoints
type UserHandler struct {
	service user.Service
}

// NewUserHandler - Constructor with DI
func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Register - POST /v1/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	// 1. Bind request
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request data")
		return
	}

	// 2. Business validation
	if err := req.Validate(); err != nil {
		response.UnprocessableEntity(c, "Invalid registration data", err)
		return
	}

	// 3. Call service
	dto, err := h.service.Register(c.Request.Context(), req)
	if handleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// Login - POST /v1/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request data")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if handleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, result)
}

// RefreshToken - POST /v1/auth/refresh
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req user.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "refresh_token is required")
		return
	}

	result, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if handleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetProfile - GET /v1/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	dto, err := h.service.GetProfile(c.Request.Context(), userID)
	if handleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// UpdatePreferences - PUT /v1/users/me/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "user not authenticated")
		return
	}

	var req user.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request data")
		return
	}

	dto, err := h.service.UpdatePreferences(c.Request.Context(), userID, req)
	if handleUserError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// handleUserError map domain error sang HTTP response. Trả về true nếu err != nil.
func handleUserError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, "Email already registered")
	case errors.Is(err, user.ErrUsernameAlreadyExists):
		response.Conflict(c, "Username already taken")
	case errors.Is(err, user.ErrInvalidCredentials):
		response.Unauthorized(c, "Invalid username or password")
	case errors.Is(err, user.ErrUserInactive):
		response.Forbidden(c, "Account is inactive")
	case errors.Is(err, user.ErrInvalidToken):
		response.Unauthorized(c, "Invalid or expired token")
	default:
		log.Printf("[Handler] User error: %v", err)
		response.InternalServerError(c, "Internal server error")
	}

	return true
}
