package section

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippet(t *testing.T) {
	t.Run("nil tree is empty", func(t *testing.T) {
		if got := snippet(nil); got != "" {
			t.Errorf("snippet(nil) = %q", got)
		}
	})

	t.Run("short trees pass through", func(t *testing.T) {
		if got := snippet(map[string]interface{}{"k": "v"}); got != `{"k":"v"}` {
			t.Errorf("snippet = %q", got)
		}
	})

	t.Run("multibyte content truncates on rune boundaries", func(t *testing.T) {
		// The byte cap would land inside a character here: the JSON prefix is
		// nine single-byte runes, every following rune is two bytes.
		got := snippet(map[string]interface{}{"hero": strings.Repeat("é", 60)})
		if !utf8.ValidString(got) {
			t.Fatalf("snippet emitted invalid UTF-8: %q", got)
		}
		if n := utf8.RuneCountInString(got); n != snippetMaxLen {
			t.Errorf("snippet runes = %d, want %d", n, snippetMaxLen)
		}
	})
}
