package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veritas-backend/gemini"
	"veritas-backend/models"
	"veritas-backend/repository"
	"veritas-backend/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyClaim        = errors.New("claim or image required")
	ErrClaimTooLong      = errors.New("claim exceeds maximum length")
	ErrImageTooLarge     = errors.New("image exceeds maximum size")
	ErrUnsupportedImage  = errors.New("unsupported image type")
	ErrVerificationDown  = errors.New("verification service unavailable")
	ErrFactCheckNotFound = errors.New("fact-check not found")
)

const (
	maxClaimLength = 2000
	maxImageBytes  = 10 << 20
)

var allowedImageMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// Verifier runs one verification against the generation API.
type Verifier interface {
	Verify(ctx context.Context, in gemini.VerifyInput) (*models.FactCheck, error)
}

// VerifyService orchestrates a verification request: validate the input,
// store the image, run the pipeline, persist the record.
type VerifyService struct {
	verifier      Verifier
	factCheckRepo *repository.FactCheckRepository
	userRepo      *repository.UserRepository
	storage       storage.Storage
	publicBaseURL string
	httpClient    *http.Client
	logger        *zap.SugaredLogger
}

// VerifyServiceOption is a functional option for VerifyService
type VerifyServiceOption func(*VerifyService)

// VerifyWithVerifier sets the verification pipeline
func VerifyWithVerifier(v Verifier) VerifyServiceOption {
	return func(s *VerifyService) {
		s.verifier = v
	}
}

// VerifyWithFactCheckRepository sets the fact-check repository
func VerifyWithFactCheckRepository(repo *repository.FactCheckRepository) VerifyServiceOption {
	return func(s *VerifyService) {
		s.factCheckRepo = repo
	}
}

// VerifyWithUserRepository sets the user repository
func VerifyWithUserRepository(repo *repository.UserRepository) VerifyServiceOption {
	return func(s *VerifyService) {
		s.userRepo = repo
	}
}

// VerifyWithStorage sets the image storage backend
func VerifyWithStorage(st storage.Storage) VerifyServiceOption {
	return func(s *VerifyService) {
		s.storage = st
	}
}

// VerifyWithPublicBaseURL sets the URL prefix under which stored images are
// served back to clients
func VerifyWithPublicBaseURL(base string) VerifyServiceOption {
	return func(s *VerifyService) {
		s.publicBaseURL = strings.TrimSuffix(base, "/")
	}
}

// VerifyWithLogger sets the logger
func VerifyWithLogger(l *zap.SugaredLogger) VerifyServiceOption {
	return func(s *VerifyService) {
		s.logger = l
	}
}

// NewVerifyService creates a new verification service
func NewVerifyService(opts ...VerifyServiceOption) *VerifyService {
	s := &VerifyService{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyRequest represents one verification request. ImageURL is an
// alternative to inline bytes: the image is fetched server-side, as when the
// claim references an already-hosted picture.
type VerifyRequest struct {
	UserID        uuid.UUID
	Claim         string
	ImageData     []byte
	ImageMIME     string
	ImageFilename string
	ImageURL      string
}

// Verify runs the full verification flow and returns the stored record.
// Persistence failures after a successful verification are logged but do not
// fail the request; the result is still returned to the caller.
func (s *VerifyService) Verify(ctx context.Context, req VerifyRequest) (*models.FactCheck, error) {
	if s.verifier == nil {
		return nil, errors.New("verifier not set")
	}

	claim := strings.TrimSpace(req.Claim)

	if len(req.ImageData) == 0 && req.ImageURL != "" {
		data, mime, err := s.fetchImage(ctx, req.ImageURL)
		if err != nil {
			return nil, err
		}
		req.ImageData = data
		if req.ImageMIME == "" {
			req.ImageMIME = mime
		}
	}

	if claim == "" && len(req.ImageData) == 0 {
		return nil, ErrEmptyClaim
	}
	if len(claim) > maxClaimLength {
		return nil, ErrClaimTooLong
	}
	if len(req.ImageData) > maxImageBytes {
		return nil, ErrImageTooLarge
	}
	if len(req.ImageData) > 0 && req.ImageMIME != "" && !allowedImageMIMEs[req.ImageMIME] {
		return nil, ErrUnsupportedImage
	}

	var imageURL *string
	if len(req.ImageData) > 0 && s.storage != nil {
		if u := s.storeImage(ctx, req); u != "" {
			imageURL = &u
		}
	}

	check, err := s.verifier.Verify(ctx, gemini.VerifyInput{
		Claim:     claim,
		ImageData: req.ImageData,
		ImageMIME: req.ImageMIME,
	})
	if err != nil {
		if errors.Is(err, gemini.ErrEmptyInput) {
			return nil, ErrEmptyClaim
		}
		if errors.Is(err, gemini.ErrUpstreamUnavailable) {
			return nil, ErrVerificationDown
		}
		return nil, err
	}

	check.UserID = req.UserID
	check.ImageURL = imageURL

	if s.factCheckRepo != nil {
		if err := s.factCheckRepo.Create(ctx, check); err != nil {
			s.logger.Errorw("failed to persist fact-check", "error", err, "user_id", req.UserID)
		} else if s.userRepo != nil {
			if err := s.userRepo.IncrementFactChecks(ctx, req.UserID); err != nil {
				s.logger.Warnw("failed to bump fact-check counter", "error", err, "user_id", req.UserID)
			}
		}
	}

	return check, nil
}

// storeImage uploads the image and returns its public URL, or "" on failure.
// Storage trouble never blocks a verification.
func (s *VerifyService) storeImage(ctx context.Context, req VerifyRequest) string {
	filename := req.ImageFilename
	if filename == "" {
		filename = "capture" + extensionFor(req.ImageMIME)
	}

	path, err := s.storage.Upload(ctx, uuid.New(), filename, bytes.NewReader(req.ImageData))
	if err != nil {
		s.logger.Warnw("failed to store image", "error", err)
		return ""
	}
	if s.publicBaseURL == "" {
		return path
	}
	return fmt.Sprintf("%s/%s", s.publicBaseURL, path)
}

// fetchImage downloads an already-hosted image so link-based verifications
// go through the same forensic path as uploads.
func (s *VerifyService) fetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", ErrUnsupportedImage
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warnw("failed to fetch image", "error", err, "url", rawURL)
		return nil, "", ErrUnsupportedImage
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", ErrUnsupportedImage
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", ErrUnsupportedImage
	}
	if len(data) > maxImageBytes {
		return nil, "", ErrImageTooLarge
	}

	mime := resp.Header.Get("Content-Type")
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return data, mime, nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}

// GetHistory returns a page of the user's fact-checks plus the total count
func (s *VerifyService) GetHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.FactCheck, int, error) {
	checks, err := s.factCheckRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.factCheckRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return checks, total, nil
}

// GetFactCheck returns one record, scoped to its owner
func (s *VerifyService) GetFactCheck(ctx context.Context, id, userID uuid.UUID) (*models.FactCheck, error) {
	check, err := s.factCheckRepo.GetByIDForUser(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFactCheckNotFound
	}
	return check, err
}

// SaveFactCheck stores a client-supplied record, for results produced while
// the app was offline
func (s *VerifyService) SaveFactCheck(ctx context.Context, check *models.FactCheck) error {
	if strings.TrimSpace(check.Claim) == "" && check.ImageURL == nil {
		return ErrEmptyClaim
	}
	if check.Verdict == "" {
		check.Verdict = models.VerdictUnverified
	}
	return s.factCheckRepo.Create(ctx, check)
}

// DeleteFactCheck removes one record, scoped to its owner
func (s *VerifyService) DeleteFactCheck(ctx context.Context, id, userID uuid.UUID) error {
	err := s.factCheckRepo.DeleteByIDForUser(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFactCheckNotFound
	}
	return err
}

// ClearHistory removes every record of the user
func (s *VerifyService) ClearHistory(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.factCheckRepo.DeleteAllForUser(ctx, userID)
}

// GetStats aggregates the user's history by verdict
func (s *VerifyService) GetStats(ctx context.Context, userID uuid.UUID) (map[models.Verdict]int, int, error) {
	counts, err := s.factCheckRepo.VerdictCounts(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return counts, total, nil
}
