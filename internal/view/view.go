// Package view provides a read-mostly projection over a tmx document:
// substring filtering and deterministic pagination for a table UI. The
// view holds unit handles only — it never copies or mutates units — and
// recomputes its handle sequence when the filter changes or the document
// reports a change.
package view

import (
	"strings"

	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
)

// View is a filtered, paged window onto a document's unit sequence.
type View struct {
	doc *tmx.Document

	query       string
	langQueries []langQuery

	handles  []tmx.UnitID
	revision uint64
	fresh    bool
}

// langQuery restricts matching to one language's variant, mirroring the
// separate source/target search boxes of the table UI.
type langQuery struct {
	lang  string
	query string
}

// New creates a view over doc showing all units.
func New(doc *tmx.Document) *View {
	return &View{doc: doc}
}

// SetFilter sets the any-variant substring filter. A unit matches when the
// query is a case-insensitive substring of the plain-text projection of at
// least one of its variants. An empty query matches every unit.
func (v *View) SetFilter(query string) {
	v.query = query
	v.fresh = false
}

// SetLanguageFilter restricts matching to a specific language's variant.
// Language filters combine with each other and with the any-variant filter
// conjunctively. An empty query removes the language's filter.
func (v *View) SetLanguageFilter(lang, query string) {
	for i, lq := range v.langQueries {
		if lq.lang == lang {
			if query == "" {
				v.langQueries = append(v.langQueries[:i], v.langQueries[i+1:]...)
			} else {
				v.langQueries[i].query = query
			}
			v.fresh = false
			return
		}
	}
	if query != "" {
		v.langQueries = append(v.langQueries, langQuery{lang: lang, query: query})
		v.fresh = false
	}
}

// ClearFilters removes every filter.
func (v *View) ClearFilters() {
	v.query = ""
	v.langQueries = nil
	v.fresh = false
}

// Page returns the unit handles for one page of the filtered sequence.
// An out-of-range page index yields an empty page, not an error.
func (v *View) Page(index, size int) []tmx.UnitID {
	if index < 0 || size <= 0 {
		return nil
	}
	v.refresh()
	start := index * size
	if start >= len(v.handles) {
		return nil
	}
	end := start + size
	if end > len(v.handles) {
		end = len(v.handles)
	}
	page := make([]tmx.UnitID, end-start)
	copy(page, v.handles[start:end])
	return page
}

// FilteredCount returns the number of units passing the current filters.
func (v *View) FilteredCount() int {
	v.refresh()
	return len(v.handles)
}

// TotalCount returns the number of units in the document.
func (v *View) TotalCount() int {
	return v.doc.Len()
}

// PageCount returns the number of pages at the given page size.
func (v *View) PageCount(size int) int {
	if size <= 0 {
		return 0
	}
	v.refresh()
	return (len(v.handles) + size - 1) / size
}

// refresh recomputes the handle sequence when the filter changed or the
// document moved on. Edits are therefore visible on the next Page call.
func (v *View) refresh() {
	rev := v.doc.Revision()
	if v.fresh && rev == v.revision {
		return
	}
	v.revision = rev
	v.fresh = true

	v.handles = v.handles[:0]
	query := strings.ToLower(v.query)
	for _, u := range v.doc.Units() {
		if v.matches(u, query) {
			v.handles = append(v.handles, u.ID)
		}
	}
}

func (v *View) matches(u *tmx.Unit, query string) bool {
	if query != "" {
		found := false
		for _, seg := range u.Variants {
			if strings.Contains(strings.ToLower(seg.PlainText()), query) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, lq := range v.langQueries {
		seg := u.Variant(lq.lang)
		if seg == nil {
			return false
		}
		if !strings.Contains(strings.ToLower(seg.PlainText()), strings.ToLower(lq.query)) {
			return false
		}
	}
	return true
}
