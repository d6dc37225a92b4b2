package styles

import (
	"context"
	"fmt"
	"sort"
)

// PendingStyle is one unsaved per-breakpoint override for an element path.
// Property writes merge into the existing pending map for the key; they do
// not replace it.
type PendingStyle struct {
	ElementPath string            `json:"elementPath"`
	Breakpoint  string            `json:"breakpoint"`
	Styles      map[string]string `json:"styles"`
	Visible     *bool             `json:"visible,omitempty"`
}

// Overlay accumulates style and visibility edits during an edit session,
// parallel to the content change tracker but keyed by (element path,
// breakpoint). Owned by one page instance, driven from one goroutine, no
// I/O until Flush.
type Overlay struct {
	pending map[string]*PendingStyle
}

func NewOverlay() *Overlay {
	return &Overlay{pending: map[string]*PendingStyle{}}
}

// SetProperty records one CSS property override.
func (o *Overlay) SetProperty(elementPath, breakpoint, property, value string) {
	entry := o.entry(elementPath, breakpoint)
	entry.Styles[property] = value
}

// SetVisibility records a visibility flag for the element path.
func (o *Overlay) SetVisibility(elementPath, breakpoint string, visible bool) {
	entry := o.entry(elementPath, breakpoint)
	entry.Visible = &visible
}

// Pending returns the unsaved changes in deterministic order.
func (o *Overlay) Pending() []PendingStyle {
	keys := make([]string, 0, len(o.pending))
	for k := range o.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]PendingStyle, 0, len(keys))
	for _, k := range keys {
		out = append(out, *o.pending[k])
	}
	return out
}

func (o *Overlay) PendingCount() int { return len(o.pending) }

// Flush persists every pending change through the service, then clears the
// overlay. On the first failure pending state stays intact for retry.
func (o *Overlay) Flush(ctx context.Context, svc *Service) error {
	for _, entry := range o.Pending() {
		if _, err := svc.Upsert(ctx, entry.ElementPath, entry.Breakpoint, entry.Styles, entry.Visible); err != nil {
			return fmt.Errorf("save styles for %s@%s: %w", entry.ElementPath, entry.Breakpoint, err)
		}
	}
	o.Discard()
	return nil
}

// Discard drops all pending style changes without persisting.
func (o *Overlay) Discard() {
	o.pending = map[string]*PendingStyle{}
}

func (o *Overlay) entry(elementPath, breakpoint string) *PendingStyle {
	key := elementPath + "@" + breakpoint
	entry, ok := o.pending[key]
	if !ok {
		entry = &PendingStyle{
			ElementPath: elementPath,
			Breakpoint:  breakpoint,
			Styles:      map[string]string{},
		}
		o.pending[key] = entry
	}
	return entry
}
