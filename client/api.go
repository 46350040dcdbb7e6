// Package client is the Go SDK for the Veritas backend. It keeps a local
// history cache that survives offline use and reconciles it with the server
// in the background.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veritas-backend/models"
)

// ErrRemote wraps any failure talking to the backend.
var ErrRemote = errors.New("remote request failed")

// Remote is the server-side half of the history store.
type Remote interface {
	// CreateFactCheck stores a record and returns it with the
	// server-assigned ID.
	CreateFactCheck(ctx context.Context, check *models.FactCheck) (*models.FactCheck, error)

	// DeleteFactCheck removes one record.
	DeleteFactCheck(ctx context.Context, id string) error

	// ClearFactChecks removes the whole history.
	ClearFactChecks(ctx context.Context) error
}

// APIClient talks to the backend's REST API with a bearer token.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAPIClient creates an API client for the given base URL and session token.
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken replaces the session token after a re-login.
func (c *APIClient) SetToken(token string) {
	c.token = token
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateFactCheck implements Remote.
func (c *APIClient) CreateFactCheck(ctx context.Context, check *models.FactCheck) (*models.FactCheck, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/fact-checks", check)
	if err != nil {
		return nil, err
	}
	stored := &models.FactCheck{}
	if err := json.Unmarshal(data, stored); err != nil {
		return nil, fmt.Errorf("%w: bad create response: %v", ErrRemote, err)
	}
	return stored, nil
}

// DeleteFactCheck implements Remote.
func (c *APIClient) DeleteFactCheck(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/fact-checks/"+id, nil)
	return err
}

// ClearFactChecks implements Remote.
func (c *APIClient) ClearFactChecks(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/fact-checks", nil)
	return err
}

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}
	if resp.StatusCode >= 400 || !envelope.Success {
		if envelope.Error != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrRemote, envelope.Error.Code, envelope.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}
	return envelope.Data, nil
}
