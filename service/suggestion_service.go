package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

const suggestionPrompt = `Génère 5 affirmations d'actualité à vérifier, du type de celles qui circulent en ce moment sur les réseaux sociaux en France.
Réponds UNIQUEMENT avec un tableau JSON de 5 chaînes de caractères, sans markdown.
Exemple : ["affirmation 1", "affirmation 2", "affirmation 3", "affirmation 4", "affirmation 5"]
Chaque affirmation doit être courte (max 100 caractères) et vérifiable.`

// fallbackSuggestions is served when the generation API is unreachable or
// returns something unusable.
var fallbackSuggestions = []string{
	"Cette vidéo montre-t-elle un vrai événement ou un montage ?",
	"Le gouvernement a-t-il vraiment annoncé cette nouvelle mesure ?",
	"Cette photo virale est-elle authentique ou générée par IA ?",
	"Cette citation attribuée à une célébrité est-elle réelle ?",
	"Ce chiffre partagé sur les réseaux sociaux est-il exact ?",
}

// SuggestionService produces trending claims to surface on the app's home
// screen. Results are cached in memory briefly to avoid hammering the API.
type SuggestionService struct {
	client *genai.Client
	model  string
	logger *zap.SugaredLogger

	mu       sync.Mutex
	cached   []string
	cachedAt time.Time
	cacheTTL time.Duration
}

// SuggestionServiceOption is a functional option for SuggestionService
type SuggestionServiceOption func(*SuggestionService)

// SuggestionWithClient sets the genai client
func SuggestionWithClient(client *genai.Client) SuggestionServiceOption {
	return func(s *SuggestionService) {
		s.client = client
	}
}

// SuggestionWithModel overrides the model name
func SuggestionWithModel(model string) SuggestionServiceOption {
	return func(s *SuggestionService) {
		s.model = model
	}
}

// SuggestionWithLogger sets the logger
func SuggestionWithLogger(l *zap.SugaredLogger) SuggestionServiceOption {
	return func(s *SuggestionService) {
		s.logger = l
	}
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(opts ...SuggestionServiceOption) *SuggestionService {
	s := &SuggestionService{
		model:    "gemini-2.0-flash",
		logger:   zap.NewNop().Sugar(),
		cacheTTL: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSuggestions returns 5 claims to suggest, falling back to a static list
// when generation fails.
func (s *SuggestionService) GetSuggestions(ctx context.Context) []string {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.cachedAt) < s.cacheTTL {
		cached := s.cached
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	if s.client == nil {
		return fallbackSuggestions
	}

	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx, genai.Text(suggestionPrompt))
	if err != nil {
		s.logger.Warnw("suggestion generation failed", "error", err)
		return fallbackSuggestions
	}

	text := collectText(resp)
	suggestions := parseSuggestions(text)
	if len(suggestions) == 0 {
		s.logger.Warnw("unusable suggestion reply", "reply", text)
		return fallbackSuggestions
	}

	s.mu.Lock()
	s.cached = suggestions
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return suggestions
}

func collectText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

// parseSuggestions reads the reply as a JSON array, tolerating a markdown
// code fence, then falls back to non-empty lines.
func parseSuggestions(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Strip a ```json fence if the model added one despite instructions.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return cleanSuggestions(list)
	}

	// Line-oriented fallback: one suggestion per line, bullets stripped.
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789. "))
		line = strings.Trim(line, `"`)
		if line != "" && !strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "]") {
			lines = append(lines, line)
		}
	}
	return cleanSuggestions(lines)
}

func cleanSuggestions(list []string) []string {
	var out []string
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == 5 {
			break
		}
	}
	return out
}
