package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/internal/services"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegisterCustomer handles public customer sign-up.
func (h *AuthHandler) RegisterCustomer(c *gin.Context) {
	var req services.RegisterCustomerRequest
	if !bindJSON(c, &req, "RegisterCustomer") {
		return
	}
	resp, err := h.authService.RegisterCustomer(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "RegisterCustomer")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// LoginCustomer handles customer login by email or phone.
func (h *AuthHandler) LoginCustomer(c *gin.Context) {
	var creds models.Credentials
	if !bindJSON(c, &creds, "LoginCustomer") {
		return
	}
	resp, err := h.authService.LoginCustomer(c.Request.Context(), creds)
	if err != nil {
		respondServiceError(c, err, "LoginCustomer")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoginStaff handles staff login by username.
func (h *AuthHandler) LoginStaff(c *gin.Context) {
	var creds models.Credentials
	if !bindJSON(c, &creds, "LoginStaff") {
		return
	}
	resp, err := h.authService.LoginStaff(c.Request.Context(), creds)
	if err != nil {
		respondServiceError(c, err, "LoginStaff")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req, "RefreshToken") {
		return
	}
	resp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err, "RefreshToken")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the profile of the authenticated principal.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	profile, err := h.authService.Me(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err, "Me")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ChangePassword updates the password of the authenticated principal.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.ChangePasswordRequest
	if !bindJSON(c, &req, "ChangePassword") {
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), actor, req); err != nil {
		respondServiceError(c, err, "ChangePassword")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
