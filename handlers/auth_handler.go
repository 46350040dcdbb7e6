package handlers

import (
	"errors"
	"net/http"

	"veritas-backend/middleware"
	"veritas-backend/models"
	"veritas-backend/repository"
	"veritas-backend/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	authService *service.AuthService
	userRepo    *repository.UserRepository
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, userRepo *repository.UserRepository) *AuthHandler {
	return &AuthHandler{authService: authService, userRepo: userRepo}
}

// RegisterRequest represents the request body for POST /api/auth/register
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, http.StatusConflict, "EMAIL_TAKEN", "Cet email est déjà utilisé")
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, http.StatusBadRequest, "WEAK_PASSWORD", "Le mot de passe doit contenir au moins 8 caractères")
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Email invalide")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		}
		return
	}

	respondData(c, http.StatusCreated, gin.H{"user": result.User, "token": result.Token})
}

// LoginRequest represents the request body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email ou mot de passe incorrect")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": result.User, "token": result.Token})
}

// SocialLoginRequest represents the request body for POST /api/auth/social
type SocialLoginRequest struct {
	Provider    string  `json:"provider" binding:"required"`
	ProviderID  string  `json:"providerId" binding:"required"`
	Email       string  `json:"email" binding:"required"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoUrl"`
}

// SocialLogin handles POST /api/auth/social
func (h *AuthHandler) SocialLogin(c *gin.Context) {
	var req SocialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.authService.SocialLogin(
		c.Request.Context(),
		models.Provider(req.Provider),
		req.ProviderID,
		req.Email,
		req.DisplayName,
		req.PhotoURL,
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProvider):
			respondError(c, http.StatusBadRequest, "INVALID_PROVIDER", "Fournisseur de connexion inconnu")
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Profil incomplet")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": result.User, "token": result.Token})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Compte introuvable")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}

	respondData(c, http.StatusOK, gin.H{"user": user})
}
