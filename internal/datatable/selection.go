package datatable

import "slices"

// SelectionKind tags the state of a Selection.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectOne
	SelectPage
)

// Selection is the checkbox state of a table: nothing, exactly one row, or
// every row of the current page.
type Selection struct {
	kind SelectionKind
	ids  []uint
}

func (s Selection) Kind() SelectionKind { return s.kind }

// IDs returns the selected row ids.
func (s Selection) IDs() []uint { return slices.Clone(s.ids) }

// Toggle handles a click on one row checkbox. Clicking the selected row clears
// the selection; clicking any other row, including from a page selection,
// selects that row alone.
func (s Selection) Toggle(id uint) Selection {
	if s.kind == SelectOne && s.ids[0] == id {
		return Selection{}
	}
	return Selection{kind: SelectOne, ids: []uint{id}}
}

// TogglePage handles the "select all" checkbox for the rows of the current page.
func (s Selection) TogglePage(pageIDs []uint) Selection {
	if s.kind == SelectPage || len(pageIDs) == 0 {
		return Selection{}
	}
	return Selection{kind: SelectPage, ids: slices.Clone(pageIDs)}
}

// CanAct reports whether row actions (edit, delete, sub-list) are enabled for id.
func (s Selection) CanAct(id uint) bool {
	return s.kind == SelectOne && s.ids[0] == id
}

// IsSelected reports whether id is checked.
func (s Selection) IsSelected(id uint) bool {
	return slices.Contains(s.ids, id)
}

// AllSelected reports whether the page checkbox is checked.
func (s Selection) AllSelected() bool {
	return s.kind == SelectPage
}
