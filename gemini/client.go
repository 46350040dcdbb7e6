package gemini

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

	"go.uber.org/zap"

	"veritas-backend/models"
)

// ErrUpstreamUnavailable is returned when the generation API cannot be
// reached or rejects the call.
var ErrUpstreamUnavailable = errors.New("generation API unavailable")

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"

	// Confidence reported when the model omits or zeroes its CONFIDENCE
	// line. A verdict was still produced, so "no confidence" is wrong.
	defaultConfidence = 85
)

// generateResponse mirrors the subset of the generateContent reply we use.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client runs verifications against the Gemini generation API with the
// Google Search grounding tool enabled.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithModel overrides the model name.
func WithModel(m string) ClientOption {
	return func(c *Client) { c.model = m }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.SugaredLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a verification client.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Verify runs the full pipeline for one input: compose the request, call the
// generation API, decode the line protocol, attribute sources, and assemble
// the record. The returned FactCheck has no ID, UserID or ImageURL; the
// service layer fills those in.
func (c *Client) Verify(ctx context.Context, in VerifyInput) (*models.FactCheck, error) {
	req, err := composeRequest(in)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	text, citations, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	parsed := parseReply(text)
	sources := attributeSources(citations, parsed.Trailer)

	confidence := parsed.Confidence
	if confidence == 0 {
		confidence = defaultConfidence
	}

	claim := in.Claim
	if claim == "" && in.hasImage() {
		claim = "Analyse d'image"
	}

	check := &models.FactCheck{
		Claim:            claim,
		Verdict:          parsed.Verdict,
		ConfidenceScore:  confidence,
		Summary:          parsed.Summary,
		Analysis:         parsed.Analysis,
		Sources:          sources,
		ProcessingTimeMs: int(time.Since(started).Milliseconds()),
	}

	// The forensic block only accompanies verdicts about the media itself.
	if in.hasImage() && (parsed.Verdict == models.VerdictAIGenerated || parsed.Verdict == models.VerdictManipulated) {
		check.VisualAnalysis = &models.VisualAnalysis{
			IsAIGenerated: parsed.Verdict == models.VerdictAIGenerated,
			IsManipulated: parsed.Verdict == models.VerdictManipulated,
			Artifacts:     []string{},
			Confidence:    confidence,
			Details:       parsed.Summary,
		}
	}

	c.logger.Infow("verification complete",
		"verdict", check.Verdict,
		"confidence", check.ConfidenceScore,
		"sources", len(check.Sources),
		"duration_ms", check.ProcessingTimeMs,
	)

	return check, nil
}

// generate calls the generateContent endpoint once and returns the reply
// text plus grounding citations. Failures are not retried here; the caller
// reports a single upstream failure and the mobile client decides whether to
// resubmit.
func (c *Client) generate(ctx context.Context, req *generateRequest) (string, []citation, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warnw("generation request failed", "status", resp.StatusCode, "body", truncateBody(body))
		return "", nil, fmt.Errorf("%w: API returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", nil, fmt.Errorf("%w: failed to decode response: %v", ErrUpstreamUnavailable, err)
	}
	if decoded.Error != nil {
		return "", nil, fmt.Errorf("%w: API error %d: %s", ErrUpstreamUnavailable, decoded.Error.Code, decoded.Error.Message)
	}
	if len(decoded.Candidates) == 0 {
		return "", nil, fmt.Errorf("%w: no candidates in response", ErrUpstreamUnavailable)
	}

	candidate := decoded.Candidates[0]

	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", nil, fmt.Errorf("%w: empty reply text", ErrUpstreamUnavailable)
	}

	var citations []citation
	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web != nil && chunk.Web.URI != "" {
				citations = append(citations, citation{URL: chunk.Web.URI, Title: chunk.Web.Title})
			}
		}
	}

	return text, citations, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
