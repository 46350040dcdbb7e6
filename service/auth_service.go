package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"veritas-backend/middleware"
	"veritas-backend/models"
	"veritas-backend/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidProvider    = errors.New("unknown sign-in provider")
)

const (
	minPasswordLength = 8
	tokenTTL          = 30 * 24 * time.Hour
)

// AuthService handles registration, login and social sign-in
type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
	logger    *zap.SugaredLogger
}

// AuthServiceOption is a functional option for AuthService
type AuthServiceOption func(*AuthService)

// AuthWithUserRepository sets the user repository
func AuthWithUserRepository(repo *repository.UserRepository) AuthServiceOption {
	return func(s *AuthService) {
		s.userRepo = repo
	}
}

// AuthWithJWTSecret sets the token signing secret
func AuthWithJWTSecret(secret string) AuthServiceOption {
	return func(s *AuthService) {
		s.jwtSecret = secret
	}
}

// AuthWithLogger sets the logger
func AuthWithLogger(l *zap.SugaredLogger) AuthServiceOption {
	return func(s *AuthService) {
		s.logger = l
	}
}

// NewAuthService creates a new auth service
func NewAuthService(opts ...AuthServiceOption) *AuthService {
	s := &AuthService{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthResult carries the signed-in user and their session token
type AuthResult struct {
	User  *models.User
	Token string
}

// Register creates an email/password account
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		Provider:     models.ProviderEmail,
		Plan:         models.PlanFree,
	}
	if user.DisplayName == "" {
		user.DisplayName = strings.Split(email, "@")[0]
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Infow("user registered", "user_id", user.ID)
	return s.issueToken(user)
}

// Login checks email/password credentials
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		// Social-only account, no password to check.
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.TouchLogin(ctx, user.ID); err != nil {
		s.logger.Warnw("failed to record login", "error", err, "user_id", user.ID)
	}

	return s.issueToken(user)
}

// SocialLogin creates or refreshes an account backed by an external identity
// provider. Provider token validation happens upstream at the API gateway;
// this trusts the verified profile fields it receives.
func (s *AuthService) SocialLogin(ctx context.Context, provider models.Provider, providerID, email, displayName string, photoURL *string) (*AuthResult, error) {
	if provider != models.ProviderGoogle && provider != models.ProviderApple {
		return nil, ErrInvalidProvider
	}
	if providerID == "" || email == "" {
		return nil, ErrInvalidCredentials
	}

	user := &models.User{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
		PhotoURL:    photoURL,
		Provider:    provider,
		ProviderID:  &providerID,
	}
	if user.DisplayName == "" {
		user.DisplayName = strings.Split(user.Email, "@")[0]
	}

	if err := s.userRepo.UpsertSocial(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *models.User) (*AuthResult, error) {
	token, err := middleware.GenerateToken(s.jwtSecret, user.ID, string(user.Plan), tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}
