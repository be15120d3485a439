package format

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://[^\s<>"']+|www\.[^\s<>"']+|[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)*\.(?:com|org|net|io|dev|edu|gov|app|co|me|gg|tv|info)\b(?:/[^\s<>"']*)?)`)

const trailingPunct = ".,!?;:)"

// Autolink wraps bare URLs and domains in anchors opening a new tab. The
// original text is kept as the link text. Matches inside a tag or an
// existing anchor are left alone.
func Autolink(s string) string {
	matches := urlPattern.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if insideMarkup(s, start) {
			continue
		}

		url := strings.TrimRight(s[start:end], trailingPunct)
		end = start + len(url)
		if url == "" {
			continue
		}

		href := url
		if !strings.HasPrefix(strings.ToLower(href), "http://") &&
			!strings.HasPrefix(strings.ToLower(href), "https://") {
			href = "http://" + href
		}

		b.WriteString(s[last:start])
		b.WriteString(`<a href="`)
		b.WriteString(href)
		b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
		b.WriteString(url)
		b.WriteString(`</a>`)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func insideMarkup(s string, i int) bool {
	before := s[:i]
	if strings.LastIndexByte(before, '<') > strings.LastIndexByte(before, '>') {
		return true
	}

	lower := strings.ToLower(before)
	open := strings.LastIndex(lower, "<a ")
	return open >= 0 && open > strings.LastIndex(lower, "</a>")
}
