package format

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/chatrooms/internal/model"
)

type upperCensor struct{ seen []string }

func (c *upperCensor) Censor(s string) string {
	c.seen = append(c.seen, s)
	return strings.ReplaceAll(s, "darn", "****")
}

func TestEmojiReplace(t *testing.T) {
	table := EmojiTable{"smile": "😄", "fire": "🔥"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single", "hi :smile:", "hi 😄"},
		{"case_insensitive", ":SMILE: :Fire:", "😄 🔥"},
		{"adjacent", ":smile::fire:", "😄🔥"},
		{"unknown_kept", "a :nope: b", "a :nope: b"},
		{"unknown_then_known", "x:y:smile:z", "x:y😄z"},
		{"unclosed", "time 10:30", "time 10:30"},
		{"url", "see http://example.com", "see http://example.com"},
		{"no_colons", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Replace(tt.in))
		})
	}

	var empty EmojiTable
	assert.Equal(t, ":smile:", empty.Replace(":smile:"))
}

func TestDefaultEmoji(t *testing.T) {
	table := DefaultEmoji()
	assert.Equal(t, "🔥", table["fire"])
	assert.Equal(t, "👍", table["+1"])
}

func TestLoadEmojiFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "emoji.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"Party": "🥳"}`), 0o600))
	table, err := LoadEmojiFile(good)
	require.NoError(t, err)
	assert.Equal(t, "🥳", table["party"])

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0o600))
	_, err = LoadEmojiFile(bad)
	assert.Error(t, err)

	_, err = LoadEmojiFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWithEmojiFile_MissingDegradesToPassthrough(t *testing.T) {
	f := New(WithEmojiFile(filepath.Join(t.TempDir(), "missing.json")), WithCensor(nil))
	assert.Equal(t, "hi :smile:", f.Format("hi :smile:", model.Regular))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "plain text, no markup", Escape("plain text, no markup"))
	assert.Equal(t, "&lt;b&gt;&amp;&lt;/b&gt;", Escape("<b>&</b>"))
}

func TestApplyMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**bold**", "<b>bold</b>"},
		{"*it*", "<i>it</i>"},
		{"__under__", "<u>under</u>"},
		{"**a** and **b**", "<b>a</b> and <b>b</b>"},
		{"**x** *y* __z__", "<b>x</b> <i>y</i> <u>z</u>"},
		{"2 * 3", "2 * 3"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyMarkers(tt.in))
		})
	}
}

func TestAutolink(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"scheme",
			"go to https://example.com/a?b=1 now",
			`go to <a href="https://example.com/a?b=1" target="_blank" rel="noopener noreferrer">https://example.com/a?b=1</a> now`,
		},
		{
			"www",
			"www.example.org",
			`<a href="http://www.example.org" target="_blank" rel="noopener noreferrer">www.example.org</a>`,
		},
		{
			"bare_domain_trailing_period",
			"visit example.com.",
			`visit <a href="http://example.com" target="_blank" rel="noopener noreferrer">example.com</a>.`,
		},
		{
			"existing_anchor",
			`<a href="https://example.com">https://example.com</a>`,
			`<a href="https://example.com">https://example.com</a>`,
		},
		{"nothing", "hello world", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Autolink(tt.in))
		})
	}
}

func TestFormat_Regular(t *testing.T) {
	f := New(WithCensor(nil))

	assert.Equal(t, "hello <b>world</b>", f.Format("hello **world**", model.Regular))
	assert.Equal(t, "no markup here", f.Format("no markup here", model.Regular))

	out := f.Format("<script>alert(1)</script>", model.Regular)
	assert.NotContains(t, out, "<script>")
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", out)

	out = f.Format("**<i>x</i>**", model.Regular)
	assert.Equal(t, "<b>&lt;i&gt;x&lt;/i&gt;</b>", out)

	assert.Equal(t, "fire 🔥", f.Format("fire :fire:", model.Regular))
}

func TestFormat_Superuser(t *testing.T) {
	f := New(WithCensor(nil))

	assert.Equal(t, "<p><strong>bold</strong></p>", f.Format("**bold**", model.Superuser))
	assert.Equal(t, "<p><span>raw</span></p>", f.Format("<span>raw</span>", model.Superuser))
}

func TestFormat_CensorRunsLast(t *testing.T) {
	c := &upperCensor{}
	f := New(WithCensor(c))

	out := f.Format("**darn** example.com", model.Regular)

	require.Len(t, c.seen, 1)
	assert.Contains(t, c.seen[0], "<b>darn</b>")
	assert.Contains(t, c.seen[0], `<a href="http://example.com"`)
	assert.Contains(t, out, "<b>****</b>")
}

func TestFormat_DefaultCensor(t *testing.T) {
	f := New()

	out := f.Format("what the fuck", model.Regular)
	assert.NotContains(t, out, "fuck")
	assert.True(t, strings.HasPrefix(out, "what the "))

	for _, clean := range []string{
		"this hit the spot",
		"I passed the class assignment",
	} {
		assert.Equal(t, clean, f.Format(clean, model.Regular))
	}
}
