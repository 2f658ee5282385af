// Package edit is the mutation layer over a tmx document. All content
// changes funnel through a Tracker, which snapshots units before their
// first edit, keeps the unit and document dirty flags consistent with
// those snapshots, and exposes the commit/discard protocol the save path
// relies on.
package edit

import (
	"errors"

	"github.com/google/uuid"

	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
)

// Errors returned by tracker operations. Both are recoverable: the caller
// re-fetches a valid handle and retries; the document is never corrupted.
var (
	ErrUnknownUnit  = errors.New("unit does not exist")
	ErrLanguageGone = errors.New("language variant no longer exists on unit")
)

// Tracker applies and tracks edits on one document.
type Tracker struct {
	doc *tmx.Document
}

// NewTracker creates a tracker bound to doc.
func NewTracker(doc *tmx.Document) *Tracker {
	return &Tracker{doc: doc}
}

// Session is one cell-editing interaction: a handle to a unit's variant
// plus the identity of the interaction itself. Sessions are values handed
// to the UI; they never reference model internals directly.
type Session struct {
	// ID identifies the interaction, for logging and UI bookkeeping.
	ID string

	unit tmx.UnitID
	lang string
}

// Unit returns the handle of the unit under edit.
func (s *Session) Unit() tmx.UnitID {
	return s.unit
}

// Language returns the language of the variant under edit.
func (s *Session) Language() string {
	return s.lang
}

// Begin opens an edit session on a unit's variant. The unit's rollback
// baseline is captured now if this is its first edit since load or save;
// later sessions on the same unit keep the original baseline.
func (t *Tracker) Begin(id tmx.UnitID, lang string) (*Session, error) {
	u, ok := t.doc.Unit(id)
	if !ok {
		return nil, ErrUnknownUnit
	}
	if u.Variant(lang) == nil {
		return nil, ErrLanguageGone
	}
	u.CaptureBaseline()
	return &Session{ID: uuid.NewString(), unit: id, lang: lang}, nil
}

// Apply replaces the session variant's content with plain text. Prior
// inline markup collapses into a single plain run; markup is only
// preserved for segments that are never edited. The unit and document
// dirty state are recomputed against the baseline, so re-typing the
// original text leaves the unit clean.
func (t *Tracker) Apply(s *Session, text string) error {
	u, seg, err := t.resolve(s)
	if err != nil {
		return err
	}
	seg.SetText(text)
	u.RefreshDirty()
	t.doc.MarkChanged()
	return nil
}

// Discard reverts the session variant to its baseline content. If no other
// variant of the unit still differs, the unit's dirty flag clears.
func (t *Tracker) Discard(s *Session) error {
	u, _, err := t.resolve(s)
	if err != nil {
		return err
	}
	u.RestoreVariant(s.lang)
	u.RefreshDirty()
	t.doc.MarkChanged()
	return nil
}

// CommitAll returns the handles of all units with pending edits, in
// document order. Content is already applied; this is the set the writer
// is about to persist. Call AcknowledgeSaved once the write succeeds.
func (t *Tracker) CommitAll() []tmx.UnitID {
	var ids []tmx.UnitID
	for _, u := range t.doc.Units() {
		if u.Dirty() {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// AcknowledgeSaved clears all dirty flags and drops all baselines after a
// successful save: the current content becomes the new rollback baseline.
func (t *Tracker) AcknowledgeSaved() {
	for _, u := range t.doc.Units() {
		u.ClearBaseline()
	}
	t.doc.MarkChanged()
}

func (t *Tracker) resolve(s *Session) (*tmx.Unit, *tmx.Segment, error) {
	u, ok := t.doc.Unit(s.unit)
	if !ok {
		return nil, nil, ErrUnknownUnit
	}
	seg := u.Variant(s.lang)
	if seg == nil {
		return nil, nil, ErrLanguageGone
	}
	return u, seg, nil
}
