package handlers

import (
	"net/http"

	"veritas-backend/service"

	"github.com/gin-gonic/gin"
)

// SuggestionHandler handles HTTP requests for claim suggestions
type SuggestionHandler struct {
	suggestionService *service.SuggestionService
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggestionService *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService}
}

// Get handles GET /api/suggestions
func (h *SuggestionHandler) Get(c *gin.Context) {
	suggestions := h.suggestionService.GetSuggestions(c.Request.Context())
	respondData(c, http.StatusOK, gin.H{"suggestions": suggestions})
}
