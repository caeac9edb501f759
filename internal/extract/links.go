package extract

import (
	"regexp"
	"strings"
)

// LinkKind classifies a harvested hyperlink for the downstream model.
type LinkKind string

const (
	LinkGitHub   LinkKind = "GitHub"
	LinkLinkedIn LinkKind = "LinkedIn"
	LinkGeneric  LinkKind = "Link"
)

type Link struct {
	URL  string
	Kind LinkKind
}

// PDF URI actions look like  /URI (https://example.com)  inside annotation
// dictionaries. Neither docconv nor the page-wise reader surfaces link
// annotations, and the plain text layer usually shows only the anchor text,
// so we pull the targets straight out of the raw object stream.
var uriActionRe = regexp.MustCompile(`/URI\s*\(((?:\\.|[^\\()])*)\)`)

// HarvestLinks extracts and classifies every URI annotation in the raw PDF
// bytes, deduplicated in order of first appearance.
func HarvestLinks(raw []byte) []Link {
	matches := uriActionRe.FindAllSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		url := unescapePDFString(string(m[1]))
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		links = append(links, Link{URL: url, Kind: classifyLink(url)})
	}
	return links
}

func classifyLink(url string) LinkKind {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "github"):
		return LinkGitHub
	case strings.Contains(lower, "linkedin"):
		return LinkLinkedIn
	default:
		return LinkGeneric
	}
}

// AnnotateLinks appends each link as a "<Kind>: <url>" line so the model sees
// URLs the plain text layer would otherwise lose.
func AnnotateLinks(text string, links []Link) string {
	if len(links) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for _, l := range links {
		b.WriteString("\n")
		b.WriteString(string(l.Kind))
		b.WriteString(": ")
		b.WriteString(l.URL)
	}
	return b.String()
}

func unescapePDFString(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
