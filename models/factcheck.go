package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Verdict represents the outcome of a verification
type Verdict string

const (
	VerdictTrue        Verdict = "TRUE"
	VerdictFalse       Verdict = "FALSE"
	VerdictMisleading  Verdict = "MISLEADING"
	VerdictNuanced     Verdict = "NUANCED"
	VerdictAIGenerated Verdict = "AI_GENERATED"
	VerdictManipulated Verdict = "MANIPULATED"
	VerdictUnverified  Verdict = "UNVERIFIED"
)

// Source represents a web source consulted during verification
type Source struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Domain     string `json:"domain"`
	Snippet    string `json:"snippet"`
	TrustScore *int   `json:"trustScore,omitempty"`
}

// SourceList represents the ordered sources attached to a fact-check
type SourceList []Source

// Value implements driver.Valuer for JSONB
func (s SourceList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal(SourceList{})
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *SourceList) Scan(value interface{}) error {
	if value == nil {
		*s = SourceList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		*s = SourceList{}
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// VisualAnalysis holds the forensic result for image verifications
type VisualAnalysis struct {
	IsAIGenerated bool     `json:"isAIGenerated"`
	IsManipulated bool     `json:"isManipulated"`
	Artifacts     []string `json:"artifacts"`
	Confidence    int      `json:"confidence"`
	Details       string   `json:"details"`
}

// Value implements driver.Valuer for JSONB
func (v VisualAnalysis) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB
func (v *VisualAnalysis) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, v)
}

// FactCheck represents one completed verification
type FactCheck struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"userId"`
	Claim            string          `json:"claim"`
	Verdict          Verdict         `json:"verdict"`
	ConfidenceScore  int             `json:"confidenceScore"`
	Summary          string          `json:"summary"`
	Analysis         string          `json:"analysis"`
	Sources          SourceList      `json:"sources"`
	VisualAnalysis   *VisualAnalysis `json:"visualAnalysis,omitempty"`
	ImageURL         *string         `json:"imageUrl,omitempty"`
	ProcessingTimeMs int             `json:"processingTimeMs"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
