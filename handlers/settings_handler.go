package handlers

import (
	"net/http"

	"veritas-backend/repository"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles HTTP requests for the global settings
type SettingsHandler struct {
	settingsRepo *repository.SettingsRepository
	adminKey     string
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsRepo *repository.SettingsRepository, adminKey string) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo, adminKey: adminKey}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsRepo.Get(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}
	respondData(c, http.StatusOK, settings)
}

// Update handles PATCH /api/settings. Guarded by a static admin key rather
// than user auth: limits are operated from the deploy tooling, not the app.
func (h *SettingsHandler) Update(c *gin.Context) {
	if h.adminKey == "" || c.GetHeader("X-Admin-Key") != h.adminKey {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Accès refusé")
		return
	}

	var patch repository.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	if patch.FreeDailyLimit != nil && *patch.FreeDailyLimit < 0 {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "La limite doit être positive ou nulle")
		return
	}
	if patch.PremiumDailyLimit != nil && *patch.PremiumDailyLimit < 0 {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "La limite doit être positive ou nulle")
		return
	}

	settings, err := h.settingsRepo.Update(c.Request.Context(), patch)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}
	respondData(c, http.StatusOK, settings)
}
