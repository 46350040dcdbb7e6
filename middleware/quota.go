package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"veritas-backend/models"
	"veritas-backend/repository"
)

const quotaRemainingKey = "quotaRemaining"

// QuotaStore claims one daily request slot for a user.
type QuotaStore interface {
	ConsumeDailyQuota(ctx context.Context, id uuid.UUID, limit int) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SettingsSource provides the current global limits.
type SettingsSource interface {
	Get(ctx context.Context) (*models.GlobalSettings, error)
}

// CheckQuota enforces the per-user daily allowance on verification requests.
// Limits are read fresh from settings on every request. Denials do not touch
// the counter, so a blocked user keeps exactly the slots already spent.
func CheckQuota(store QuotaStore, settings SettingsSource, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentification requise")
			return
		}

		cfg, err := settings.Get(c.Request.Context())
		if err != nil {
			logger.Errorw("failed to load global settings", "error", err)
			abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
			return
		}

		user, err := store.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				abortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Compte introuvable")
				return
			}
			logger.Errorw("failed to load user for quota check", "error", err, "user_id", userID)
			abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
			return
		}

		limit := cfg.FreeDailyLimit
		if user.Plan != models.PlanFree {
			limit = cfg.PremiumDailyLimit
		}

		remaining, err := store.ConsumeDailyQuota(c.Request.Context(), userID, limit)
		if err != nil {
			if errors.Is(err, repository.ErrQuotaExceeded) {
				logger.Infow("daily quota exhausted", "user_id", userID, "limit", limit)
				abortError(c, http.StatusForbidden, "QUOTA_EXCEEDED",
					"Limite quotidienne atteinte. Passez Premium pour continuer.")
				return
			}
			logger.Errorw("failed to consume quota", "error", err, "user_id", userID)
			abortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Erreur interne du serveur")
			return
		}

		c.Set(quotaRemainingKey, remaining)
		c.Next()
	}
}

// QuotaRemaining reports the allowance left after the current request, or -1
// when the plan is unlimited.
func QuotaRemaining(c *gin.Context) int {
	v, exists := c.Get(quotaRemainingKey)
	if !exists {
		return -1
	}
	n, ok := v.(int)
	if !ok {
		return -1
	}
	return n
}
