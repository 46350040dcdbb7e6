package gemini

import (
	"net/url"
	"strings"

	"veritas-backend/models"
)

const maxSources = 10

// citation is one grounding reference reported by the search tool.
type citation struct {
	URL   string
	Title string
}

// trailerDetail is one "- <url> : <title> | <summary>" line from the reply
// trailer, keyed by normalized URL for matching against citations. Details
// keep the order they were written in so matching is deterministic.
type trailerDetail struct {
	Key     string
	Title   string
	Summary string
}

// attributeSources merges the search-tool citations with the per-source
// detail lines the model wrote in its trailer. Citations drive the list;
// trailer details enrich matching entries with a title and snippet.
func attributeSources(citations []citation, trailer string) models.SourceList {
	details := parseTrailerDetails(trailer)

	sources := models.SourceList{}
	seen := map[string]bool{}

	for _, c := range citations {
		resolved := unwrapRedirect(c.URL)
		if resolved == "" {
			continue
		}
		key := normalizeURL(resolved)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		src := models.Source{
			Title:   c.Title,
			URL:     resolved,
			Domain:  domainOf(resolved),
			Snippet: "Source vérifiée via Google Search",
		}
		// Grounding titles are sometimes the URL itself; prefer the bare
		// domain in that case.
		if strings.Contains(src.Title, "://") || strings.HasPrefix(src.Title, "www.") {
			src.Title = src.Domain
		}
		if src.Title == "" {
			src.Title = "Source Web"
		}

		if d, ok := matchDetail(details, key); ok {
			if d.Title != "" {
				src.Title = d.Title
			}
			if d.Summary != "" {
				src.Snippet = d.Summary
			}
		}

		sources = append(sources, src)
		if len(sources) >= maxSources {
			break
		}
	}

	return sources
}

// parseTrailerDetails reads "- <url> : <title> | <summary>" lines in order.
func parseTrailerDetails(trailer string) []trailerDetail {
	var details []trailerDetail
	for _, line := range strings.Split(trailer, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if !strings.HasPrefix(line, "http") {
			continue
		}

		rawURL := line
		rest := ""
		if idx := strings.Index(line, " : "); idx != -1 {
			rawURL = line[:idx]
			rest = strings.TrimSpace(line[idx+3:])
		} else if idx := strings.IndexAny(line, " \t"); idx != -1 {
			rawURL = line[:idx]
			rest = strings.TrimSpace(strings.TrimLeft(line[idx:], " \t:"))
		}

		d := trailerDetail{Key: normalizeURL(unwrapRedirect(rawURL))}
		if d.Key == "" {
			continue
		}
		if rest != "" {
			if idx := strings.Index(rest, "|"); idx != -1 {
				d.Title = strings.TrimSpace(rest[:idx])
				d.Summary = strings.TrimSpace(rest[idx+1:])
			} else {
				d.Title = rest
			}
		}
		details = append(details, d)
	}
	return details
}

// matchDetail finds the trailer entry for a citation. Exact normalized match
// first, then containment either way in line order, so a citation to an
// article page still picks up a detail line written for a shorter canonical
// URL and ties always resolve to the earliest line.
func matchDetail(details []trailerDetail, key string) (trailerDetail, bool) {
	for _, d := range details {
		if d.Key == key {
			return d, true
		}
	}
	for _, d := range details {
		if strings.Contains(key, d.Key) || strings.Contains(d.Key, key) {
			return d, true
		}
	}
	return trailerDetail{}, false
}

// unwrapRedirect resolves the vertexaisearch redirect wrapper the grounding
// tool puts around real URLs. Non-redirect URLs pass through unchanged.
func unwrapRedirect(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "vertexaisearch") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	for _, param := range []string{"url", "q"} {
		if target := u.Query().Get(param); strings.HasPrefix(target, "http") {
			return target
		}
	}
	return raw
}

// normalizeURL produces a matching key: lowercase, scheme and www. stripped,
// no query, no trailing slash.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	path := strings.TrimSuffix(u.Path, "/")
	return host + strings.ToLower(path)
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
