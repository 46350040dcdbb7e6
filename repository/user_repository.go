package repository

import (
	"context"
	"errors"
	"time"

	"veritas-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when registering an email already in use.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrQuotaExceeded is returned when a user's daily allowance is spent.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
)

const userColumns = `id, email, password_hash, display_name, photo_url,
		provider, provider_id, plan, is_premium, fact_checks_count,
		daily_requests_count, last_request_date,
		created_at, updated_at, last_login_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			email, password_hash, display_name, photo_url,
			provider, provider_id, plan, is_premium
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, fact_checks_count, daily_requests_count, last_request_date,
			created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.PhotoURL,
		user.Provider,
		user.ProviderID,
		user.Plan,
		user.IsPremium,
	).Scan(
		&user.ID,
		&user.FactChecksCount,
		&user.DailyRequestsCount,
		&user.LastRequestDate,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

// UpsertSocial creates or refreshes a user signing in through an external
// provider, matching on (provider, provider_id).
func (r *UserRepository) UpsertSocial(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			email, password_hash, display_name, photo_url,
			provider, provider_id, plan, is_premium, last_login_at
		) VALUES ($1, '', $2, $3, $4, $5, 'free', FALSE, NOW())
		ON CONFLICT (provider, provider_id) WHERE provider_id IS NOT NULL DO UPDATE SET
			display_name = EXCLUDED.display_name,
			photo_url = COALESCE(EXCLUDED.photo_url, users.photo_url),
			last_login_at = NOW(),
			updated_at = NOW()
		RETURNING ` + userColumns

	row := r.db.QueryRow(
		ctx, query,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		user.Provider,
		user.ProviderID,
	)

	got, err := r.scanUser(row)
	if err != nil {
		return err
	}
	*user = *got
	return nil
}

// TouchLogin records a successful login
func (r *UserRepository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// UpdatePlan changes the subscription plan of a user
func (r *UserRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan models.Plan) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			plan = $2,
			is_premium = ($2 <> 'free'),
			updated_at = NOW()
		WHERE id = $1`, id, plan)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementFactChecks bumps the lifetime verification counter
func (r *UserRepository) IncrementFactChecks(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET fact_checks_count = fact_checks_count + 1, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// NextDailyCount computes the counter value a new request would commit, with
// the calendar-day reset applied. It returns -1 when the request must be
// denied. A limit of 0 means unlimited. Exported as a pure function so the
// reset-and-deny rules are testable without a database.
func NextDailyCount(count int, last, now time.Time, limit int) int {
	if !sameDay(last, now) {
		count = 0
	}
	if limit > 0 && count >= limit {
		return -1
	}
	return count + 1
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ConsumeDailyQuota atomically claims one request slot for the user. The row
// is locked for the duration of the check so concurrent requests serialize
// and exactly limit slots exist per day. A denied request leaves the counter
// untouched. Returns the remaining allowance after consumption (-1 when
// unlimited).
func (r *UserRepository) ConsumeDailyQuota(ctx context.Context, id uuid.UUID, limit int) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var count int
	var last time.Time
	err = tx.QueryRow(ctx,
		`SELECT daily_requests_count, last_request_date FROM users WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&count, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	next := NextDailyCount(count, last, now, limit)
	if next < 0 {
		return 0, ErrQuotaExceeded
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET
			daily_requests_count = $2,
			last_request_date = $3,
			updated_at = NOW()
		WHERE id = $1`, id, next, now)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	if limit <= 0 {
		return -1, nil
	}
	return limit - next, nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.PhotoURL,
		&user.Provider,
		&user.ProviderID,
		&user.Plan,
		&user.IsPremium,
		&user.FactChecksCount,
		&user.DailyRequestsCount,
		&user.LastRequestDate,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
