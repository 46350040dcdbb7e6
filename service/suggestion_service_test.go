package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSuggestionsJSON(t *testing.T) {
	got := parseSuggestions(`["une", "deux", "trois", "quatre", "cinq"]`)
	assert.Equal(t, []string{"une", "deux", "trois", "quatre", "cinq"}, got)
}

func TestParseSuggestionsFencedJSON(t *testing.T) {
	got := parseSuggestions("```json\n[\"une\", \"deux\"]\n```")
	assert.Equal(t, []string{"une", "deux"}, got)
}

func TestParseSuggestionsLines(t *testing.T) {
	got := parseSuggestions("1. Première affirmation\n- Deuxième affirmation\n\n• Troisième")
	assert.Equal(t, []string{"Première affirmation", "Deuxième affirmation", "Troisième"}, got)
}

func TestParseSuggestionsCapsAtFive(t *testing.T) {
	got := parseSuggestions(`["a","b","c","d","e","f","g"]`)
	assert.Len(t, got, 5)
}

func TestParseSuggestionsEmpty(t *testing.T) {
	assert.Nil(t, parseSuggestions("   "))
	assert.Nil(t, parseSuggestions(""))
}

func TestGetSuggestionsWithoutClient(t *testing.T) {
	svc := NewSuggestionService()
	got := svc.GetSuggestions(context.Background())
	assert.Equal(t, fallbackSuggestions, got)
}
