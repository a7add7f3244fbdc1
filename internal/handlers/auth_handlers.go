package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the auth service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Register handles creating a new staff account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Register: Failed to bind JSON")
		return
	}
	user, err := h.authService.RegisterUser(req)
	if err != nil {
		respondServiceError(c, err, "Register: Error from authService.RegisterUser")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login handles credential verification and token issuance.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Login: Failed to bind JSON")
		return
	}
	resp, err := h.authService.LoginUser(req)
	if err != nil {
		respondServiceError(c, err, "Login: Error from authService.LoginUser")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh handles exchanging a refresh token for a fresh pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req services.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Refresh: Failed to bind JSON")
		return
	}
	resp, err := h.authService.RefreshTokens(req)
	if err != nil {
		respondServiceError(c, err, "Refresh: Error from authService.RefreshTokens")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me handles returning the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt64("userID")
	if userID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", ""))
		return
	}
	user, err := h.authService.GetUserProfile(userID)
	if err != nil {
		respondServiceError(c, err, "Me: Error from authService.GetUserProfile")
		return
	}
	c.JSON(http.StatusOK, user)
}
