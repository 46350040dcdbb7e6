package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"veritas-backend/middleware"
	"veritas-backend/models"
	"veritas-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FactCheckHandler handles HTTP requests for verifications and history
type FactCheckHandler struct {
	verifyService *service.VerifyService
}

// NewFactCheckHandler creates a new fact-check handler
func NewFactCheckHandler(verifyService *service.VerifyService) *FactCheckHandler {
	return &FactCheckHandler{verifyService: verifyService}
}

// VerifyJSONRequest represents the JSON request body for POST /api/fact-checks/verify
type VerifyJSONRequest struct {
	Claim    string `json:"claim"`
	ImageURL string `json:"imageUrl"`
}

// Verify handles POST /api/fact-checks/verify. Accepts either a JSON body
// with a claim or a multipart form carrying a claim plus an image.
func (h *FactCheckHandler) Verify(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	req := service.VerifyRequest{UserID: userID}

	if isMultipart(c) {
		claim := c.PostForm("claim")
		req.Claim = claim

		file, header, err := c.Request.FormFile("image")
		if err == nil {
			defer file.Close()
			data, readErr := io.ReadAll(io.LimitReader(file, (10<<20)+1))
			if readErr != nil {
				respondError(c, http.StatusBadRequest, "INVALID_INPUT", "Impossible de lire l'image")
				return
			}
			req.ImageData = data
			req.ImageMIME = header.Header.Get("Content-Type")
			req.ImageFilename = header.Filename
		}
	} else {
		var body VerifyJSONRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		req.Claim = body.Claim
		req.ImageURL = body.ImageURL
	}

	check, err := h.verifyService.Verify(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyClaim):
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "Une affirmation ou une image est requise")
		case errors.Is(err, service.ErrClaimTooLong):
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "L'affirmation est trop longue (2000 caractères max)")
		case errors.Is(err, service.ErrImageTooLarge):
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "L'image dépasse 10 Mo")
		case errors.Is(err, service.ErrUnsupportedImage):
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "Format d'image non supporté")
		case errors.Is(err, service.ErrVerificationDown):
			respondError(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Le service de vérification est momentanément indisponible")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"data":           check,
		"quotaRemaining": middleware.QuotaRemaining(c),
	})
}

func isMultipart(c *gin.Context) bool {
	ct := c.GetHeader("Content-Type")
	return len(ct) >= 19 && ct[:19] == "multipart/form-data"
}

// List handles GET /api/fact-checks
func (h *FactCheckHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	checks, total, err := h.verifyService.GetHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}
	if checks == nil {
		checks = []*models.FactCheck{}
	}

	respondData(c, http.StatusOK, gin.H{
		"factChecks": checks,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// Get handles GET /api/fact-checks/:id
func (h *FactCheckHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	check, err := h.verifyService.GetFactCheck(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrFactCheckNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Vérification introuvable")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}

	respondData(c, http.StatusOK, check)
}

// Create handles POST /api/fact-checks, saving a record the client produced
// while offline
func (h *FactCheckHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	var check models.FactCheck
	if err := c.ShouldBindJSON(&check); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	check.ID = uuid.Nil
	check.UserID = userID

	if err := h.verifyService.SaveFactCheck(c.Request.Context(), &check); err != nil {
		if errors.Is(err, service.ErrEmptyClaim) {
			respondError(c, http.StatusBadRequest, "INVALID_INPUT", "Une affirmation est requise")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}

	respondData(c, http.StatusCreated, &check)
}

// Delete handles DELETE /api/fact-checks/:id
func (h *FactCheckHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide")
		return
	}

	if err := h.verifyService.DeleteFactCheck(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, service.ErrFactCheckNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Vérification introuvable")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// DeleteAll handles DELETE /api/fact-checks
func (h *FactCheckHandler) DeleteAll(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	deleted, err := h.verifyService.ClearHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": deleted})
}

// Stats handles GET /api/fact-checks/stats
func (h *FactCheckHandler) Stats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
		return
	}

	counts, total, err := h.verifyService.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"total":     total,
		"byVerdict": counts,
	})
}
