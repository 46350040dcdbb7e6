package gemini

import (
	"strings"
	"testing"

	"veritas-backend/models"
)

func TestParseReplyFullProtocol(t *testing.T) {
	raw := `FALSE
CONFIDENCE: 92
La vidéo est un montage créé par un artiste VFX connu.

Le compte à l'origine de la vidéo est spécialisé dans les effets spéciaux.
Plusieurs médias ont confirmé qu'il s'agit d'une création numérique.

SOURCES_DETAILS:
- https://example.org/debunk : Article de vérification | Analyse complète du montage`

	got := parseReply(raw)

	if got.Verdict != models.VerdictFalse {
		t.Errorf("verdict = %q, want FALSE", got.Verdict)
	}
	if got.Confidence != 92 {
		t.Errorf("confidence = %d, want 92", got.Confidence)
	}
	if got.Summary != "La vidéo est un montage créé par un artiste VFX connu." {
		t.Errorf("unexpected summary: %q", got.Summary)
	}
	if !strings.Contains(got.Analysis, "effets spéciaux") {
		t.Errorf("analysis missing body text: %q", got.Analysis)
	}
	if strings.Contains(got.Analysis, "SOURCES_DETAILS") {
		t.Errorf("trailer leaked into analysis: %q", got.Analysis)
	}
	if !strings.Contains(got.Trailer, "example.org/debunk") {
		t.Errorf("trailer missing source line: %q", got.Trailer)
	}
}

func TestParseReplyVerdictPriority(t *testing.T) {
	cases := []struct {
		line string
		want models.Verdict
	}{
		{"TRUE", models.VerdictTrue},
		{"**VRAI**", models.VerdictTrue},
		{"FAUX", models.VerdictFalse},
		{"MISLEADING", models.VerdictMisleading},
		{"Verdict : TROMPEUR", models.VerdictMisleading},
		{"NUANCED", models.VerdictNuanced},
		{"NUANCE", models.VerdictNuanced},
		{"MANIPULATED", models.VerdictManipulated},
		{"IMAGE MANIPULEE", models.VerdictManipulated},
		{"AI_GENERATED", models.VerdictAIGenerated},
		{"IMAGE GENEREE PAR IA", models.VerdictAIGenerated},
		{"je ne sais pas", models.VerdictUnverified},
		// A manipulation verdict must not be absorbed by the AI label.
		{"MANIPULATED / AI_GENERATED", models.VerdictManipulated},
		// TRUE wins over FALSE when both appear ("true or false?").
		{"TRUE (pas FALSE)", models.VerdictTrue},
	}

	for _, tc := range cases {
		got := parseReply(tc.line + "\nrésumé\n\ncorps")
		if got.Verdict != tc.want {
			t.Errorf("detectVerdict(%q) = %q, want %q", tc.line, got.Verdict, tc.want)
		}
	}
}

func TestParseReplyConfidenceVariants(t *testing.T) {
	cases := []struct {
		line string
		want int
	}{
		{"CONFIDENCE: 75", 75},
		{"CONFIANCE : 60%", 60},
		{"Niveau de CONFIANCE: 100", 100},
		{"CONFIDENCE: 250", 100},
		{"CONFIDENCE: haute", 0},
	}

	for _, tc := range cases {
		got := parseReply("FALSE\n" + tc.line + "\nrésumé\n\ncorps")
		if got.Confidence != tc.want {
			t.Errorf("confidence for %q = %d, want %d", tc.line, got.Confidence, tc.want)
		}
	}
}

func TestParseReplyMissingConfidence(t *testing.T) {
	got := parseReply("TRUE\nL'affirmation est exacte.\n\nLes données officielles la confirment.")
	if got.Confidence != 0 {
		t.Errorf("confidence = %d, want 0 (not stated)", got.Confidence)
	}
	if got.Summary != "L'affirmation est exacte." {
		t.Errorf("unexpected summary: %q", got.Summary)
	}
}

func TestParseReplyEmptyInput(t *testing.T) {
	got := parseReply("   \n  ")
	if got.Verdict != models.VerdictUnverified {
		t.Errorf("verdict = %q, want UNVERIFIED", got.Verdict)
	}
	if got.Summary != "Analyse en cours..." {
		t.Errorf("summary = %q, want fallback", got.Summary)
	}
	if got.Analysis != "Détails non disponibles." {
		t.Errorf("analysis = %q, want fallback", got.Analysis)
	}
}

func TestParseReplySingleBlock(t *testing.T) {
	long := strings.Repeat("Une phrase assez longue pour dépasser la limite. ", 10)
	got := parseReply("MISLEADING\n" + long)

	if got.Analysis != strings.TrimSpace(long) {
		t.Errorf("analysis should keep full text")
	}
	if len([]rune(got.Summary)) > 160 {
		t.Errorf("summary not truncated: %d runes", len([]rune(got.Summary)))
	}
	if !strings.HasSuffix(got.Summary, "...") {
		t.Errorf("truncated summary missing ellipsis: %q", got.Summary)
	}
}

func TestParseReplyDropsBoilerplate(t *testing.T) {
	raw := `FALSE
CONFIDENCE: 80
Résumé de la vérification.

Première partie de l'analyse.
- N/A
- AUCUN INDICE de manipulation détecté ici n'est pertinent
Sans objet
Deuxième partie de l'analyse.`

	got := parseReply(raw)
	if strings.Contains(got.Analysis, "N/A") || strings.Contains(strings.ToUpper(got.Analysis), "SANS OBJET") {
		t.Errorf("boilerplate kept: %q", got.Analysis)
	}
	if !strings.Contains(got.Analysis, "Deuxième partie") {
		t.Errorf("real content dropped: %q", got.Analysis)
	}
}

func TestParseReplyAlternateTrailerMarkers(t *testing.T) {
	for _, marker := range []string{"SECTION FINALE", "RAPPORT D'ANALYSE"} {
		raw := "TRUE\nRésumé.\n\nAnalyse.\n\n" + marker + ":\n- https://example.com : Titre"
		got := parseReply(raw)
		if strings.Contains(got.Analysis, marker) {
			t.Errorf("marker %q not stripped from analysis", marker)
		}
		if !strings.Contains(got.Trailer, "example.com") {
			t.Errorf("marker %q: trailer lost", marker)
		}
	}
}
