package editsurface

import (
	"strings"

	"golang.org/x/net/html"
)

// Markers rendered onto editable surfaces by the page templates.
const (
	attrSection = "data-gc-section"
	attrField   = "data-gc-field"
)

const slugMaxChars = 20

// FieldRef locates a content-tree field for a rendered node. Stable is false
// when the ref was synthesized from text content: editing the text changes
// its own future lookup key, so such refs are a degraded mode.
type FieldRef struct {
	SectionKey string
	Path       []string
	Stable     bool
}

// resolveFieldRef walks up from n (inclusive) looking for the first ancestor
// carrying both section and field markers. Absent markers, it falls back to
// the nearest landmark section plus a slug of the node's leading text.
func resolveFieldRef(n *html.Node) (FieldRef, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		sectionKey := attr(cur, attrSection)
		fieldPath := attr(cur, attrField)
		if sectionKey != "" && fieldPath != "" {
			return FieldRef{
				SectionKey: sectionKey,
				Path:       strings.Split(fieldPath, "."),
				Stable:     true,
			}, true
		}
	}

	sectionKey := landmarkSection(n)
	if sectionKey == "" {
		return FieldRef{}, false
	}
	slug := slugify(textContent(n))
	if slug == "" {
		return FieldRef{}, false
	}
	return FieldRef{SectionKey: sectionKey, Path: []string{"text", slug}, Stable: false}, true
}

// landmarkSection finds the identifier of the nearest enclosing landmark:
// a <section>/<header>/<footer>/<main> element with an id, or any ancestor
// carrying just the section marker.
func landmarkSection(n *html.Node) string {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if key := attr(cur, attrSection); key != "" {
			return key
		}
		switch cur.Data {
		case "section", "header", "footer", "main", "article":
			if id := attr(cur, "id"); id != "" {
				return id
			}
		}
	}
	return ""
}

// slugify derives a lookup key from the first ~20 characters of text.
func slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	runes := []rune(text)
	if len(runes) > slugMaxChars {
		runes = runes[:slugMaxChars]
	}

	var b strings.Builder
	lastDash := true
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
