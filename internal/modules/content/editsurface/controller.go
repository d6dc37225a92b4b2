// Package editsurface makes eligible text nodes of an already-rendered page
// directly editable while edit mode is active, without requiring every piece
// of text to be pre-wrapped in an editable component. The controller owns a
// parsed HTML document and mutates it imperatively, mirroring the way the
// browser-side surface toggles contenteditable and outline affordances on
// live DOM nodes.
package editsurface

import (
	"strings"

	"github.com/amorris3925/get-creative/internal/modules/content/tracker"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	hoverOutline  = "outline: 2px dashed #38bdf8; outline-offset: 2px"
	activeOutline = "outline: 2px solid #0ea5e9; outline-offset: 2px"
)

// editSession is the single active in-place edit.
type editSession struct {
	node          *html.Node
	originalText  string
	originalStyle string
	ref           FieldRef
}

// Controller is the edit-surface state machine: Idle | Hovering(node) |
// Editing(node, originalText, ref). All events arrive on one goroutine, the
// analog of the browser event loop; ordering matters (hover events are
// suppressed while an edit is active) but there is no concurrency.
type Controller struct {
	doc     *html.Node
	tracker *tracker.Tracker
	logger  *zap.Logger

	editMode   bool
	hovered    *html.Node
	hoverStyle string
	active     *editSession
}

// Parse parses rendered page HTML into a document tree for a controller.
func Parse(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}

func NewController(doc *html.Node, trk *tracker.Tracker, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{doc: doc, tracker: trk, logger: logger}
}

// Document exposes the live tree, e.g. for re-rendering after edits.
func (c *Controller) Document() *html.Node { return c.doc }

// EditMode reports whether edit mode is active.
func (c *Controller) EditMode() bool { return c.editMode }

// SetEditMode toggles edit mode. Turning it off while an element is being
// edited force-cleans its editable state without committing.
func (c *Controller) SetEditMode(on bool) {
	if c.editMode == on {
		return
	}
	c.editMode = on
	if !on {
		if c.active != nil {
			c.cleanActive()
		}
		c.clearHover()
	}
}

// PointerEnter applies the hover affordance to an eligible element. It is
// suppressed while any element is actively being edited.
func (c *Controller) PointerEnter(n *html.Node) {
	if !c.editMode || c.active != nil || n == c.hovered {
		return
	}
	if !isEditable(n) {
		return
	}
	c.clearHover()
	c.hovered = n
	c.hoverStyle = attr(n, "style")
	setAttr(n, "style", joinStyle(c.hoverStyle, hoverOutline))
}

// PointerLeave removes the hover affordance.
func (c *Controller) PointerLeave(n *html.Node) {
	if c.active != nil || n != c.hovered {
		return
	}
	c.clearHover()
}

// Click begins an edit session on an eligible element. It reports whether
// the event was consumed, in which case default navigation/bubbling must be
// prevented by the caller; the document-level capture phase guarantees this
// runs ahead of any other click handler. Only one element may be in live
// edit state at a time: a click while editing commits the current session
// first.
func (c *Controller) Click(n *html.Node) bool {
	if !c.editMode {
		return false
	}
	if c.active != nil {
		c.Blur()
	}
	if !isEditable(n) {
		return false
	}

	ref, ok := resolveFieldRef(n)
	if !ok {
		return false
	}
	if !ref.Stable {
		c.logger.Debug("editing via synthesized path",
			zap.String("section", ref.SectionKey),
			zap.String("path", strings.Join(ref.Path, ".")),
		)
	}

	c.clearHover()
	original := textContent(n)
	c.active = &editSession{
		node:          n,
		originalText:  original,
		originalStyle: attr(n, "style"),
		ref:           ref,
	}
	setAttr(n, "contenteditable", "true")
	setAttr(n, "style", joinStyle(c.active.originalStyle, activeOutline))
	return true
}

// Type replaces the text of the actively edited element, standing in for
// the user typing into the contenteditable node.
func (c *Controller) Type(text string) {
	if c.active == nil {
		return
	}
	setText(c.active.node, text)
}

// Blur ends the active edit session. If the text changed against the
// original, the diff is forwarded to the change tracker.
func (c *Controller) Blur() {
	if c.active == nil {
		return
	}
	sess := c.active
	newText := textContent(sess.node)
	c.cleanActive()

	if newText != sess.originalText {
		original := sess.originalText
		c.tracker.AddChange(sess.ref.SectionKey, sess.ref.Path, newText, &original)
	}
}

// PressEnter commits the active edit (Enter without shift blurs).
func (c *Controller) PressEnter() {
	c.Blur()
}

// PressEscape restores the original text and blurs, so the commit step sees
// no diff and records nothing.
func (c *Controller) PressEscape() {
	if c.active == nil {
		return
	}
	setText(c.active.node, c.active.originalText)
	c.Blur()
}

// Editing reports whether an element is in live edit state.
func (c *Controller) Editing() bool { return c.active != nil }

// SetFieldText implements tracker.Mirror: undo/redo write restored values
// straight into the rendered node when one matching the key is mounted.
func (c *Controller) SetFieldText(sectionKey string, path []string, value string) bool {
	node := c.findField(sectionKey, strings.Join(path, "."))
	if node == nil {
		return false
	}
	setText(node, value)
	return true
}

// cleanActive reverts contenteditable and visual treatment without looking
// at the text.
func (c *Controller) cleanActive() {
	sess := c.active
	removeAttr(sess.node, "contenteditable")
	if sess.originalStyle == "" {
		removeAttr(sess.node, "style")
	} else {
		setAttr(sess.node, "style", sess.originalStyle)
	}
	c.active = nil
}

func (c *Controller) clearHover() {
	if c.hovered == nil {
		return
	}
	if c.hoverStyle == "" {
		removeAttr(c.hovered, "style")
	} else {
		setAttr(c.hovered, "style", c.hoverStyle)
	}
	c.hovered = nil
	c.hoverStyle = ""
}

func (c *Controller) findField(sectionKey, fieldPath string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && attr(n, attrSection) == sectionKey && attr(n, attrField) == fieldPath {
			found = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if c.doc != nil {
		walk(c.doc)
	}
	return found
}

func joinStyle(base, extra string) string {
	base = strings.TrimRight(strings.TrimSpace(base), ";")
	if base == "" {
		return extra
	}
	return base + "; " + extra
}
