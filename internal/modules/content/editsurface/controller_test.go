package editsurface

import (
	"context"
	"strings"
	"testing"

	"github.com/amorris3925/get-creative/internal/modules/content/tracker"
)

const pageHTML = `<html><body>
<section id="hero" data-gc-section="home">
  <h1 id="title" data-gc-field="hero.title">Get Creative</h1>
  <p id="subtitle" data-gc-field="hero.subtitle">Campaigns that <em>pop</em></p>
  <p id="unmarked">Ten years of fizz</p>
  <button id="cta" data-gc-field="hero.cta">Book a call</button>
  <p id="empty">   </p>
  <div id="wrapper"><p>block child</p></div>
</section>
<div id="orphan"><p id="lost">No landmark here</p></div>
</body></html>`

func newTestController(t *testing.T) (*Controller, *tracker.Tracker) {
	t.Helper()
	doc, err := Parse(pageHTML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	trk := tracker.New(nopFlusher{})
	c := NewController(doc, trk, nil)
	return c, trk
}

type nopFlusher struct{}

func (nopFlusher) SaveInline(context.Context, string, []tracker.FieldChange) error { return nil }

func TestIsEditable(t *testing.T) {
	c, _ := newTestController(t)
	doc := c.Document()

	tests := []struct {
		id   string
		want bool
	}{
		{"title", true},
		{"subtitle", true}, // inline <em> child is allowed
		{"unmarked", true},
		{"cta", false},     // interactive tag
		{"empty", false},   // no text
		{"wrapper", false}, // block element child
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			n := FindByID(doc, tt.id)
			if n == nil {
				t.Fatalf("node #%s not found", tt.id)
			}
			if got := isEditable(n); got != tt.want {
				t.Errorf("isEditable(#%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestResolveFieldRef(t *testing.T) {
	c, _ := newTestController(t)
	doc := c.Document()

	t.Run("explicit markers give a stable ref", func(t *testing.T) {
		ref, ok := resolveFieldRef(FindByID(doc, "title"))
		if !ok || !ref.Stable {
			t.Fatalf("ref = %+v, ok = %v", ref, ok)
		}
		if ref.SectionKey != "home" || strings.Join(ref.Path, ".") != "hero.title" {
			t.Errorf("ref = %+v", ref)
		}
	})

	t.Run("unmarked node falls back to landmark plus slug", func(t *testing.T) {
		ref, ok := resolveFieldRef(FindByID(doc, "unmarked"))
		if !ok {
			t.Fatal("expected a synthesized ref")
		}
		if ref.Stable {
			t.Error("synthesized ref must be marked unstable")
		}
		if ref.SectionKey != "home" {
			t.Errorf("sectionKey = %q, want home (from data attr on landmark)", ref.SectionKey)
		}
		if ref.Path[0] != "text" || ref.Path[1] != "ten-years-of-fizz" {
			t.Errorf("path = %v", ref.Path)
		}
	})

	t.Run("no landmark means no ref", func(t *testing.T) {
		if _, ok := resolveFieldRef(FindByID(doc, "lost")); ok {
			t.Error("expected no ref without any landmark")
		}
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Get Creative!", "get-creative"},
		{"  Fresh   Fizz  ", "fresh-fizz"},
		{"A headline that runs much longer than twenty characters", "a-headline-that-runs"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHoverAffordance(t *testing.T) {
	c, _ := newTestController(t)
	title := FindByID(c.Document(), "title")

	t.Run("hover requires edit mode", func(t *testing.T) {
		c.PointerEnter(title)
		if attr(title, "style") != "" {
			t.Error("hover outline applied outside edit mode")
		}
	})

	c.SetEditMode(true)

	t.Run("hover applies and removes outline", func(t *testing.T) {
		c.PointerEnter(title)
		if !strings.Contains(attr(title, "style"), "dashed") {
			t.Errorf("style = %q, want hover outline", attr(title, "style"))
		}
		c.PointerLeave(title)
		if attr(title, "style") != "" {
			t.Errorf("style = %q, want empty after leave", attr(title, "style"))
		}
	})

	t.Run("hover suppressed while editing", func(t *testing.T) {
		c.Click(title)
		other := FindByID(c.Document(), "subtitle")
		c.PointerEnter(other)
		if attr(other, "style") != "" {
			t.Error("hover applied while another element is being edited")
		}
		c.Blur()
	})
}

func TestEditProtocol(t *testing.T) {
	t.Run("click activates contenteditable", func(t *testing.T) {
		c, _ := newTestController(t)
		c.SetEditMode(true)
		title := FindByID(c.Document(), "title")

		if !c.Click(title) {
			t.Fatal("click on eligible element should be consumed")
		}
		if attr(title, "contenteditable") != "true" {
			t.Error("contenteditable not set")
		}
		if !strings.Contains(attr(title, "style"), "solid") {
			t.Error("active outline not applied")
		}
		if !c.Editing() {
			t.Error("controller should report editing")
		}
	})

	t.Run("click outside edit mode is not consumed", func(t *testing.T) {
		c, _ := newTestController(t)
		title := FindByID(c.Document(), "title")
		if c.Click(title) {
			t.Error("click must be ignored outside edit mode")
		}
	})

	t.Run("blur with changed text commits to tracker", func(t *testing.T) {
		c, trk := newTestController(t)
		c.SetEditMode(true)
		title := FindByID(c.Document(), "title")

		c.Click(title)
		c.Type("Stay Fizzy")
		c.Blur()

		v, ok := trk.PendingValue("home", []string{"hero", "title"})
		if !ok || v != "Stay Fizzy" {
			t.Errorf("PendingValue = %q, %v", v, ok)
		}
		if attr(title, "contenteditable") != "" {
			t.Error("contenteditable should be removed on blur")
		}
		if c.Editing() {
			t.Error("controller should be idle after blur")
		}
	})

	t.Run("blur with unchanged text records nothing", func(t *testing.T) {
		c, trk := newTestController(t)
		c.SetEditMode(true)
		c.Click(FindByID(c.Document(), "title"))
		c.Blur()
		if trk.PendingCount() != 0 {
			t.Errorf("PendingCount = %d, want 0", trk.PendingCount())
		}
	})

	t.Run("enter commits like blur", func(t *testing.T) {
		c, trk := newTestController(t)
		c.SetEditMode(true)
		c.Click(FindByID(c.Document(), "title"))
		c.Type("Pop More")
		c.PressEnter()
		if _, ok := trk.PendingValue("home", []string{"hero", "title"}); !ok {
			t.Error("enter should commit the edit")
		}
	})

	t.Run("escape restores original and records nothing", func(t *testing.T) {
		c, trk := newTestController(t)
		c.SetEditMode(true)
		title := FindByID(c.Document(), "title")

		c.Click(title)
		c.Type("Garbage")
		c.PressEscape()

		if trk.PendingCount() != 0 {
			t.Errorf("PendingCount = %d, want 0 after escape", trk.PendingCount())
		}
		if got := textContent(title); got != "Get Creative" {
			t.Errorf("text = %q, want original restored", got)
		}
	})

	t.Run("second click commits first session", func(t *testing.T) {
		c, trk := newTestController(t)
		c.SetEditMode(true)
		title := FindByID(c.Document(), "title")
		subtitle := FindByID(c.Document(), "subtitle")

		c.Click(title)
		c.Type("Rebrand")
		c.Click(subtitle)

		if _, ok := trk.PendingValue("home", []string{"hero", "title"}); !ok {
			t.Error("first session should have committed before the second began")
		}
		if attr(title, "contenteditable") != "" {
			t.Error("first element should be cleaned")
		}
		if attr(subtitle, "contenteditable") != "true" {
			t.Error("second element should be active")
		}
	})

	t.Run("edit mode off force-cleans without committing", func(t *testing.T) {
		c, trk := newTestController(t)
		c.SetEditMode(true)
		title := FindByID(c.Document(), "title")

		c.Click(title)
		c.Type("Uncommitted")
		c.SetEditMode(false)

		if trk.PendingCount() != 0 {
			t.Errorf("PendingCount = %d, want 0 after force-clean", trk.PendingCount())
		}
		if attr(title, "contenteditable") != "" {
			t.Error("contenteditable should be removed by force-clean")
		}
	})
}

func TestSetFieldText(t *testing.T) {
	c, _ := newTestController(t)
	title := FindByID(c.Document(), "title")

	if !c.SetFieldText("home", []string{"hero", "title"}, "Restored") {
		t.Fatal("SetFieldText should find the marked node")
	}
	if got := textContent(title); got != "Restored" {
		t.Errorf("text = %q, want Restored", got)
	}
	if c.SetFieldText("home", []string{"hero", "missing"}, "x") {
		t.Error("SetFieldText should report false for unmounted fields")
	}
}
