package editsurface

import (
	"strings"

	"golang.org/x/net/html"
)

// disallowedTags are never made editable: interactive controls, media, and
// SVG primitives.
var disallowedTags = map[string]bool{
	"button": true, "input": true, "textarea": true, "select": true,
	"option": true, "label": true, "form": true,
	"img": true, "video": true, "audio": true, "source": true, "track": true,
	"iframe": true, "canvas": true, "object": true, "embed": true,
	"svg": true, "path": true, "circle": true, "rect": true, "line": true,
	"polyline": true, "polygon": true, "ellipse": true, "g": true, "use": true,
	"script": true, "style": true, "noscript": true, "template": true,
}

// inlineTags are the only element children an editable node may have.
var inlineTags = map[string]bool{
	"b": true, "i": true, "em": true, "strong": true, "span": true,
	"u": true, "s": true, "small": true, "sub": true, "sup": true,
	"mark": true, "abbr": true, "code": true, "br": true, "wbr": true,
}

// isEditable is the structural heuristic for "can this element be edited in
// place". It is deliberately approximate; false positives and negatives are
// tolerated, and the structured per-field editor remains the fallback.
func isEditable(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if disallowedTags[n.Data] {
		return false
	}
	if attr(n, "onclick") != "" || strings.EqualFold(attr(n, "role"), "button") {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !inlineTags[c.Data] {
			return false
		}
	}
	return strings.TrimSpace(textContent(n)) != ""
}
