package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritas-backend/gemini"
	"veritas-backend/middleware"
	"veritas-backend/models"
	"veritas-backend/service"
)

type stubVerifier struct {
	lastInput gemini.VerifyInput
	err       error
}

func (s *stubVerifier) Verify(_ context.Context, in gemini.VerifyInput) (*models.FactCheck, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.FactCheck{
		Claim:           in.Claim,
		Verdict:         models.VerdictFalse,
		ConfidenceScore: 88,
		Summary:         "Faux.",
		Analysis:        "Analyse détaillée.",
		Sources:         models.SourceList{},
	}, nil
}

func verifyRouter(verifier service.Verifier, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewVerifyService(service.VerifyWithVerifier(verifier))
	h := NewFactCheckHandler(svc)

	r := gin.New()
	r.POST("/api/fact-checks/verify", func(c *gin.Context) {
		if userID != uuid.Nil {
			middleware.SetUserID(c, userID)
		}
	}, h.Verify)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestVerifyEndpointJSON(t *testing.T) {
	verifier := &stubVerifier{}
	r := verifyRouter(verifier, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fact-checks/verify",
		strings.NewReader(`{"claim":"La terre est plate"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)

	var check models.FactCheck
	require.NoError(t, json.Unmarshal(body.Data, &check))
	assert.Equal(t, models.VerdictFalse, check.Verdict)
	assert.Equal(t, 88, check.ConfidenceScore)
	assert.Equal(t, "La terre est plate", verifier.lastInput.Claim)
}

func TestVerifyEndpointMultipart(t *testing.T) {
	verifier := &stubVerifier{}
	r := verifyRouter(verifier, uuid.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("claim", "Cette photo est truquée"))
	part, err := mw.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fact-checks/verify", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Cette photo est truquée", verifier.lastInput.Claim)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, verifier.lastInput.ImageData)
}

func TestVerifyEndpointEmptyInput(t *testing.T) {
	r := verifyRouter(&stubVerifier{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fact-checks/verify",
		strings.NewReader(`{"claim":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestVerifyEndpointUpstreamDown(t *testing.T) {
	r := verifyRouter(&stubVerifier{err: gemini.ErrUpstreamUnavailable}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fact-checks/verify",
		strings.NewReader(`{"claim":"test"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", body.Error.Code)
}

func TestVerifyEndpointRequiresAuth(t *testing.T) {
	r := verifyRouter(&stubVerifier{}, uuid.Nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fact-checks/verify",
		strings.NewReader(`{"claim":"test"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
