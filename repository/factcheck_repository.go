package repository

import (
	"context"
	"errors"

	"veritas-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const factCheckColumns = `id, user_id, claim, verdict, confidence_score,
		summary, analysis, sources, visual_analysis, image_url,
		processing_time_ms, created_at, updated_at`

// FactCheckRepository handles database operations for fact-checks
type FactCheckRepository struct {
	db *pgxpool.Pool
}

// NewFactCheckRepository creates a new fact-check repository
func NewFactCheckRepository(db *pgxpool.Pool) *FactCheckRepository {
	return &FactCheckRepository{db: db}
}

// Create inserts a new fact-check record
func (r *FactCheckRepository) Create(ctx context.Context, check *models.FactCheck) error {
	query := `
		INSERT INTO fact_checks (
			user_id, claim, verdict, confidence_score, summary, analysis,
			sources, visual_analysis, image_url, processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		check.UserID,
		check.Claim,
		check.Verdict,
		check.ConfidenceScore,
		check.Summary,
		check.Analysis,
		check.Sources,
		check.VisualAnalysis,
		check.ImageURL,
		check.ProcessingTimeMs,
	).Scan(&check.ID, &check.CreatedAt, &check.UpdatedAt)
}

// GetByIDForUser retrieves one fact-check, scoped to its owner
func (r *FactCheckRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.FactCheck, error) {
	check := &models.FactCheck{}
	query := `SELECT ` + factCheckColumns + ` FROM fact_checks WHERE id = $1 AND user_id = $2`

	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&check.ID,
		&check.UserID,
		&check.Claim,
		&check.Verdict,
		&check.ConfidenceScore,
		&check.Summary,
		&check.Analysis,
		&check.Sources,
		&check.VisualAnalysis,
		&check.ImageURL,
		&check.ProcessingTimeMs,
		&check.CreatedAt,
		&check.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return check, nil
}

// ListByUser retrieves a user's history, newest first
func (r *FactCheckRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.FactCheck, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `SELECT ` + factCheckColumns + `
		FROM fact_checks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []*models.FactCheck
	for rows.Next() {
		check := &models.FactCheck{}
		err := rows.Scan(
			&check.ID,
			&check.UserID,
			&check.Claim,
			&check.Verdict,
			&check.ConfidenceScore,
			&check.Summary,
			&check.Analysis,
			&check.Sources,
			&check.VisualAnalysis,
			&check.ImageURL,
			&check.ProcessingTimeMs,
			&check.CreatedAt,
			&check.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	return checks, rows.Err()
}

// CountByUser returns the total number of fact-checks for a user
func (r *FactCheckRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM fact_checks WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// DeleteByIDForUser removes one fact-check, scoped to its owner
func (r *FactCheckRepository) DeleteByIDForUser(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM fact_checks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForUser clears a user's history and reports how many rows went
func (r *FactCheckRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM fact_checks WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// VerdictCounts aggregates a user's history by verdict
func (r *FactCheckRepository) VerdictCounts(ctx context.Context, userID uuid.UUID) (map[models.Verdict]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT verdict, COUNT(*)
		FROM fact_checks
		WHERE user_id = $1
		GROUP BY verdict`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.Verdict]int{}
	for rows.Next() {
		var verdict models.Verdict
		var n int
		if err := rows.Scan(&verdict, &n); err != nil {
			return nil, err
		}
		counts[verdict] = n
	}
	return counts, rows.Err()
}
