// Package format turns raw chat input into the HTML sent to clients.
//
// The pipeline runs in a fixed order: emoji substitution, HTML safety
// (escaping for regular users, markdown for superusers), inline markers,
// URL autolinking and finally profanity censorship. Censorship runs after
// markup is injected, so it sees the final HTML.
package format

import (
	"bytes"
	"html"
	"log/slog"
	"regexp"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/yuin/goldmark"
	mdhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/johndosdos/chatrooms/internal/model"
)

// Censor masks profane words.
type Censor interface {
	Censor(s string) string
}

// Formatter is safe for concurrent use.
type Formatter struct {
	emoji    EmojiTable
	markdown goldmark.Markdown
	censor   Censor
}

type Option func(*Formatter)

// WithEmojiTable replaces the embedded emoji table.
func WithEmojiTable(t EmojiTable) Option {
	return func(f *Formatter) { f.emoji = t }
}

// WithEmojiFile loads the emoji table from path. A missing or malformed
// file disables emoji substitution instead of failing.
func WithEmojiFile(path string) Option {
	return func(f *Formatter) {
		if path == "" {
			return
		}
		t, err := LoadEmojiFile(path)
		if err != nil {
			slog.Warn("emoji substitution disabled",
				"path", path,
				"error", err)
			f.emoji = nil
			return
		}
		f.emoji = t
	}
}

// WithCensor replaces the profanity filter. nil disables censorship.
func WithCensor(c Censor) Option {
	return func(f *Formatter) { f.censor = c }
}

// New returns a Formatter with the embedded emoji table and the default
// profanity detector.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		emoji: DefaultEmoji(),
		markdown: goldmark.New(
			goldmark.WithRendererOptions(mdhtml.WithUnsafe()),
		),
		// Leet speak and special character folding would mangle ids and
		// URLs inside the generated markup. Space folding matches across
		// word boundaries.
		censor: goaway.NewProfanityDetector().
			WithSanitizeLeetSpeak(false).
			WithSanitizeSpecialCharacters(false).
			WithSanitizeSpaces(false),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format runs the full pipeline. role must come from the authenticated
// session, never from the inbound payload.
func (f *Formatter) Format(content string, role model.Role) string {
	out := f.emoji.Replace(content)

	if role == model.Superuser {
		out = f.renderMarkdown(out)
	} else {
		out = Escape(out)
	}

	out = ApplyMarkers(out)
	out = Autolink(out)

	if f.censor != nil {
		out = f.censor.Censor(out)
	}
	return out
}

// Escape escapes every HTML metacharacter.
func Escape(s string) string {
	return html.EscapeString(s)
}

func (f *Formatter) renderMarkdown(s string) string {
	var buf bytes.Buffer
	if err := f.markdown.Convert([]byte(s), &buf); err != nil {
		slog.Warn("markdown render failed, passing content through", "error", err)
		return s
	}
	return strings.TrimSpace(buf.String())
}

var (
	boldMarker      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicMarker    = regexp.MustCompile(`\*(.+?)\*`)
	underlineMarker = regexp.MustCompile(`__(.+?)__`)
)

// ApplyMarkers converts **bold**, *italic* and __underline__, in that
// order so the single asterisk never consumes half of a double one.
func ApplyMarkers(s string) string {
	s = boldMarker.ReplaceAllString(s, "<b>$1</b>")
	s = italicMarker.ReplaceAllString(s, "<i>$1</i>")
	s = underlineMarker.ReplaceAllString(s, "<u>$1</u>")
	return s
}
