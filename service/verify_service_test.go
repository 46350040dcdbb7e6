package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritas-backend/gemini"
	"veritas-backend/models"
)

type fakeVerifier struct {
	lastInput gemini.VerifyInput
	result    *models.FactCheck
	err       error
}

func (f *fakeVerifier) Verify(_ context.Context, in gemini.VerifyInput) (*models.FactCheck, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	return &out, nil
}

func sampleResult() *models.FactCheck {
	return &models.FactCheck{
		Verdict:         models.VerdictFalse,
		ConfidenceScore: 90,
		Summary:         "Faux.",
		Analysis:        "Analyse.",
		Sources:         models.SourceList{},
	}
}

func TestVerifyAssignsOwner(t *testing.T) {
	verifier := &fakeVerifier{result: sampleResult()}
	svc := NewVerifyService(VerifyWithVerifier(verifier))
	userID := uuid.New()

	check, err := svc.Verify(context.Background(), VerifyRequest{
		UserID: userID,
		Claim:  "  La tour Eiffel a fondu.  ",
	})
	require.NoError(t, err)

	assert.Equal(t, userID, check.UserID)
	assert.Equal(t, "La tour Eiffel a fondu.", verifier.lastInput.Claim)
	assert.Nil(t, check.ImageURL)
}

func TestVerifyValidation(t *testing.T) {
	svc := NewVerifyService(VerifyWithVerifier(&fakeVerifier{result: sampleResult()}))

	cases := []struct {
		name string
		req  VerifyRequest
		want error
	}{
		{"empty", VerifyRequest{Claim: "   "}, ErrEmptyClaim},
		{"too long", VerifyRequest{Claim: strings.Repeat("a", maxClaimLength+1)}, ErrClaimTooLong},
		{"image too large", VerifyRequest{ImageData: make([]byte, maxImageBytes+1)}, ErrImageTooLarge},
		{"bad mime", VerifyRequest{ImageData: []byte{1}, ImageMIME: "application/pdf"}, ErrUnsupportedImage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerifyImageOnly(t *testing.T) {
	verifier := &fakeVerifier{result: sampleResult()}
	svc := NewVerifyService(VerifyWithVerifier(verifier))

	_, err := svc.Verify(context.Background(), VerifyRequest{
		ImageData: []byte{0xff, 0xd8},
		ImageMIME: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, verifier.lastInput.ImageData)
	assert.Empty(t, verifier.lastInput.Claim)
}

func TestVerifyFetchesImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	}))
	defer srv.Close()

	verifier := &fakeVerifier{result: sampleResult()}
	svc := NewVerifyService(VerifyWithVerifier(verifier))

	_, err := svc.Verify(context.Background(), VerifyRequest{ImageURL: srv.URL + "/photo.png"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, verifier.lastInput.ImageData)
	assert.Equal(t, "image/png", verifier.lastInput.ImageMIME)
}

func TestVerifyUnreachableImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewVerifyService(VerifyWithVerifier(&fakeVerifier{result: sampleResult()}))

	_, err := svc.Verify(context.Background(), VerifyRequest{ImageURL: srv.URL + "/gone.png"})
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestVerifyMapsUpstreamErrors(t *testing.T) {
	svc := NewVerifyService(VerifyWithVerifier(&fakeVerifier{err: gemini.ErrUpstreamUnavailable}))

	_, err := svc.Verify(context.Background(), VerifyRequest{Claim: "test"})
	assert.ErrorIs(t, err, ErrVerificationDown)
}
