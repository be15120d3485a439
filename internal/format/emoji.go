package format

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed emoji.json
var defaultEmoji []byte

// EmojiTable maps lower-case names to glyphs.
type EmojiTable map[string]string

// DefaultEmoji returns the table compiled into the binary.
func DefaultEmoji() EmojiTable {
	table, err := parseEmoji(defaultEmoji)
	if err != nil {
		panic(fmt.Sprintf("format: embedded emoji table: %v", err))
	}
	return table
}

// LoadEmojiFile reads a JSON object of name to glyph.
func LoadEmojiFile(path string) (EmojiTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("format: read emoji file: %w", err)
	}
	return parseEmoji(data)
}

func parseEmoji(data []byte) (EmojiTable, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("format: parse emoji table: %w", err)
	}

	table := make(EmojiTable, len(raw))
	for name, glyph := range raw {
		table[strings.ToLower(name)] = glyph
	}
	return table, nil
}

// Replace substitutes :name: tokens found in the table. Unknown tokens and
// stray colons are kept verbatim.
func (t EmojiTable) Replace(s string) string {
	if len(t) == 0 {
		return s
	}

	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(parts[0])
	for i := 1; i < len(parts); i++ {
		// parts[i] is enclosed by colons only when another part follows.
		if i < len(parts)-1 {
			if glyph, ok := t[strings.ToLower(parts[i])]; ok {
				b.WriteString(glyph)
				i++
				b.WriteString(parts[i])
				continue
			}
		}
		b.WriteByte(':')
		b.WriteString(parts[i])
	}
	return b.String()
}
