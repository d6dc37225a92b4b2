// Package tracker accumulates field-level text edits during one editing
// session and supports linear undo/redo with a batched flush. A Tracker is
// owned by a single page instance and driven from a single goroutine, the
// same way the browser event loop drives the editing UI; it performs no I/O
// until SaveChanges.
package tracker

import (
	"context"
	"fmt"
	"sort"

	"github.com/amorris3925/get-creative/internal/pkg/jsontree"
	"go.uber.org/zap"
)

// undoLimit caps both stacks; the oldest entry is dropped first.
const undoLimit = 50

// State is the edit-session lifecycle: Idle -> Editing (pending > 0) ->
// Saving -> Idle on success, back to Editing on failure.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateSaving
)

// FieldChange is one pending edit as handed to the flusher.
type FieldChange struct {
	Path  []string `json:"path"`
	Value string   `json:"value"`
}

// Change is a pending field edit. Values stay strings until save-time
// coercion; Previous is the baseline before the first edit when known.
type Change struct {
	SectionKey string
	Path       []string
	Value      string
	Previous   *string
}

// Flusher persists one section's batch of pending edits.
type Flusher interface {
	SaveInline(ctx context.Context, sectionKey string, changes []FieldChange) error
}

// Mirror pushes a restored value back into the rendered page, if a node for
// the field is currently mounted.
type Mirror interface {
	SetFieldText(sectionKey string, path []string, value string) bool
}

// stackEntry snapshots the pending state for one key: value to restore, or
// nil meaning "the field had no pending change" (remove the entry).
type stackEntry struct {
	key        string
	sectionKey string
	path       []string
	value      *string
	previous   *string
}

// Tracker is the in-memory change tracker.
type Tracker struct {
	pending map[string]Change
	undo    []stackEntry
	redo    []stackEntry
	state   State

	flusher Flusher
	mirror  Mirror
	reload  func()
	logger  *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMirror attaches a DOM mirror for undo/redo side effects.
func WithMirror(m Mirror) Option { return func(t *Tracker) { t.mirror = m } }

// WithReload sets the callback fired after a successful save or a discard,
// standing in for the page reload that re-fetches canonical content.
func WithReload(fn func()) Option { return func(t *Tracker) { t.reload = fn } }

func WithLogger(l *zap.Logger) Option { return func(t *Tracker) { t.logger = l } }

func New(flusher Flusher, opts ...Option) *Tracker {
	t := &Tracker{
		pending: map[string]Change{},
		flusher: flusher,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddChange records an edit to one field. If the field already has a pending
// entry, that entry's value is pushed onto the undo stack before being
// overwritten; otherwise a synthetic entry carrying the supplied previous
// value is pushed. Any new edit clears the redo stack.
func (t *Tracker) AddChange(sectionKey string, path []string, value string, previous *string) {
	key := jsontree.PathKey(sectionKey, path)

	if existing, ok := t.pending[key]; ok {
		v := existing.Value
		t.pushUndo(stackEntry{key: key, sectionKey: sectionKey, path: path, value: &v, previous: existing.Previous})
		previous = existing.Previous
	} else {
		t.pushUndo(stackEntry{key: key, sectionKey: sectionKey, path: path, value: cloneStr(previous), previous: cloneStr(previous)})
	}

	t.pending[key] = Change{SectionKey: sectionKey, Path: path, Value: value, Previous: cloneStr(previous)}
	t.redo = nil
	t.state = StateEditing
}

// Undo reverts the most recent edit. It is a no-op on an empty stack and
// never fails. Restoring a nil value removes the pending entry entirely: the
// field was never altered from baseline.
func (t *Tracker) Undo() {
	if len(t.undo) == 0 {
		return
	}
	entry := t.undo[len(t.undo)-1]
	t.undo = t.undo[:len(t.undo)-1]

	t.redo = append(t.redo, t.snapshot(entry))
	t.restore(entry)
}

// Redo re-applies the most recently undone edit; no-op on an empty stack.
func (t *Tracker) Redo() {
	if len(t.redo) == 0 {
		return
	}
	entry := t.redo[len(t.redo)-1]
	t.redo = t.redo[:len(t.redo)-1]

	t.pushUndo(t.snapshot(entry))
	t.restore(entry)
}

// snapshot captures the current pending state for an entry's key.
func (t *Tracker) snapshot(entry stackEntry) stackEntry {
	cur := stackEntry{key: entry.key, sectionKey: entry.sectionKey, path: entry.path}
	if existing, ok := t.pending[entry.key]; ok {
		v := existing.Value
		cur.value = &v
		cur.previous = existing.Previous
	}
	return cur
}

func (t *Tracker) restore(entry stackEntry) {
	if entry.value == nil {
		delete(t.pending, entry.key)
	} else {
		t.pending[entry.key] = Change{
			SectionKey: entry.sectionKey,
			Path:       entry.path,
			Value:      *entry.value,
			Previous:   cloneStr(entry.previous),
		}
		if t.mirror != nil {
			t.mirror.SetFieldText(entry.sectionKey, entry.path, *entry.value)
		}
	}
	if len(t.pending) == 0 {
		t.state = StateIdle
	} else {
		t.state = StateEditing
	}
}

// SaveChanges flushes all pending edits, one call per section. On success
// the tracker resets and the reload callback fires; on failure pending state
// stays intact so the user can retry.
func (t *Tracker) SaveChanges(ctx context.Context) error {
	if len(t.pending) == 0 {
		return nil
	}
	t.state = StateSaving

	grouped := map[string][]FieldChange{}
	for _, ch := range t.pending {
		grouped[ch.SectionKey] = append(grouped[ch.SectionKey], FieldChange{Path: ch.Path, Value: ch.Value})
	}
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, sectionKey := range keys {
		if err := t.flusher.SaveInline(ctx, sectionKey, grouped[sectionKey]); err != nil {
			t.state = StateEditing
			return fmt.Errorf("save section %q: %w", sectionKey, err)
		}
	}

	t.logger.Info("changes saved", zap.Int("fields", len(t.pending)), zap.Int("sections", len(keys)))
	t.reset()
	if t.reload != nil {
		t.reload()
	}
	return nil
}

// DiscardChanges drops all pending edits without persisting and fires the
// reload callback to revert any already-mutated page state.
func (t *Tracker) DiscardChanges() {
	t.reset()
	if t.reload != nil {
		t.reload()
	}
}

// Pending returns the pending changes in deterministic key order.
func (t *Tracker) Pending() []Change {
	keys := make([]string, 0, len(t.pending))
	for k := range t.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Change, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.pending[k])
	}
	return out
}

// PendingValue returns the pending value for a field, if any.
func (t *Tracker) PendingValue(sectionKey string, path []string) (string, bool) {
	ch, ok := t.pending[jsontree.PathKey(sectionKey, path)]
	if !ok {
		return "", false
	}
	return ch.Value, true
}

func (t *Tracker) PendingCount() int { return len(t.pending) }
func (t *Tracker) CanUndo() bool     { return len(t.undo) > 0 }
func (t *Tracker) CanRedo() bool     { return len(t.redo) > 0 }
func (t *Tracker) State() State      { return t.state }

func (t *Tracker) pushUndo(entry stackEntry) {
	if len(t.undo) >= undoLimit {
		t.undo = t.undo[1:]
	}
	t.undo = append(t.undo, entry)
}

func (t *Tracker) reset() {
	t.pending = map[string]Change{}
	t.undo = nil
	t.redo = nil
	t.state = StateIdle
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
