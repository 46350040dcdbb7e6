package gemini

import (
	"strconv"
	"strings"

	"veritas-backend/models"
)

// parsedReply is the intermediate result of decoding the model's text reply,
// before source attribution and record assembly.
type parsedReply struct {
	Verdict    models.Verdict
	Confidence int
	Summary    string
	Analysis   string
	Trailer    string
}

// trailerMarkers open the machine-oriented tail of the reply. Everything from
// the first marker onward is kept for source attribution but removed from the
// analysis shown to users.
var trailerMarkers = []string{
	"SOURCES_DETAILS",
	"SECTION FINALE",
	"RAPPORT D'ANALYSE",
}

// boilerplateLines are filler the model emits when a section has nothing to
// say. They are dropped from the analysis body.
var boilerplateLines = []string{
	"N/A",
	"SANS OBJET",
	"AUCUN INDICE",
	"PAS D'INDICES",
	"NOT APPLICABLE",
	"NONE",
}

// parseReply decodes the line-oriented reply protocol. It is deliberately
// tolerant: a malformed reply degrades to UNVERIFIED with fallback text
// rather than failing the request.
func parseReply(raw string) parsedReply {
	out := parsedReply{
		Verdict:  models.VerdictUnverified,
		Summary:  "Analyse en cours...",
		Analysis: "Détails non disponibles.",
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return out
	}

	body, trailer := splitTrailer(text)
	out.Trailer = trailer

	lines := strings.Split(body, "\n")

	out.Verdict = detectVerdict(lines[0])
	rest := lines[1:]

	// The CONFIDENCE line is optional and may drift a line or two.
	for i, line := range rest {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "CONFIDENCE") || strings.Contains(upper, "CONFIANCE") {
			out.Confidence = extractConfidence(line)
			rest = append(append([]string{}, rest[:i]...), rest[i+1:]...)
			break
		}
		if i >= 2 {
			break
		}
	}

	var kept []string
	for _, line := range rest {
		if isBoilerplate(line) {
			continue
		}
		kept = append(kept, line)
	}

	// First non-empty kept line is the summary, the remainder the analysis.
	summaryIdx := -1
	for i, line := range kept {
		if strings.TrimSpace(line) != "" {
			summaryIdx = i
			break
		}
	}
	if summaryIdx == -1 {
		return out
	}

	out.Summary = strings.TrimSpace(kept[summaryIdx])
	analysis := strings.TrimSpace(strings.Join(kept[summaryIdx+1:], "\n"))
	if analysis != "" {
		out.Analysis = analysis
	} else {
		// Single-block reply: reuse the text as analysis and derive a
		// short summary from its head.
		out.Analysis = out.Summary
		out.Summary = headline(out.Summary, 150)
	}

	return out
}

// splitTrailer cuts the reply at the first trailer marker.
func splitTrailer(text string) (body, trailer string) {
	upper := strings.ToUpper(text)
	cut := -1
	for _, marker := range trailerMarkers {
		if idx := strings.Index(upper, marker); idx != -1 && (cut == -1 || idx < cut) {
			cut = idx
		}
	}
	if cut == -1 {
		return text, ""
	}
	return strings.TrimSpace(text[:cut]), strings.TrimSpace(text[cut:])
}

// detectVerdict maps the first reply line to a verdict. Keywords are checked
// in a fixed priority order so a line mentioning several labels resolves
// deterministically. MANIPUL is tested before GENERATED so a doctored-photo
// verdict is not swallowed by the broader AI label.
func detectVerdict(line string) models.Verdict {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "TRUE") || strings.Contains(upper, "VRAI"):
		return models.VerdictTrue
	case strings.Contains(upper, "FALSE") || strings.Contains(upper, "FAUX"):
		return models.VerdictFalse
	case strings.Contains(upper, "MISLEADING") || strings.Contains(upper, "TROMPEUR"):
		return models.VerdictMisleading
	case strings.Contains(upper, "NUANCE"):
		return models.VerdictNuanced
	case strings.Contains(upper, "MANIPUL"):
		return models.VerdictManipulated
	case strings.Contains(upper, "GENERATED") || strings.Contains(upper, "GENEREE") || strings.Contains(upper, "GÉNÉRÉE"):
		return models.VerdictAIGenerated
	default:
		return models.VerdictUnverified
	}
}

// extractConfidence pulls the first integer out of a CONFIDENCE line and
// clamps it to [0, 100]. Returns 0 when no digits are present; the assembler
// treats 0 as "not stated".
func extractConfidence(line string) int {
	start := -1
	for i, r := range line {
		if r >= '0' && r <= '9' {
			start = i
			break
		}
	}
	if start == -1 {
		return 0
	}
	end := start
	for end < len(line) && line[end] >= '0' && line[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(line[start:end])
	if err != nil {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func isBoilerplate(line string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(strings.TrimLeft(line, "-*• ")))
	if trimmed == "" {
		return false
	}
	for _, b := range boilerplateLines {
		if strings.HasPrefix(trimmed, b) {
			return true
		}
	}
	return false
}

// headline truncates text to at most max runes, cutting at a word boundary
// and appending an ellipsis when shortened.
func headline(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
