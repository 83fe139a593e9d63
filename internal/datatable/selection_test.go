package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionToggle(t *testing.T) {
	var s Selection
	assert.Equal(t, SelectNone, s.Kind())
	assert.False(t, s.CanAct(1))

	s = s.Toggle(1)
	assert.Equal(t, SelectOne, s.Kind())
	assert.True(t, s.CanAct(1))
	assert.False(t, s.CanAct(2))

	s = s.Toggle(2)
	assert.Equal(t, []uint{2}, s.IDs())
	assert.True(t, s.CanAct(2))
	assert.False(t, s.IsSelected(1))

	s = s.Toggle(2)
	assert.Equal(t, SelectNone, s.Kind())
	assert.Empty(t, s.IDs())
}

func TestSelectionTogglePage(t *testing.T) {
	page := []uint{4, 5, 6}

	s := Selection{}.TogglePage(page)
	assert.True(t, s.AllSelected())
	assert.ElementsMatch(t, page, s.IDs())
	for _, id := range page {
		assert.True(t, s.IsSelected(id))
		assert.False(t, s.CanAct(id), "row actions are disabled while the whole page is selected")
	}

	page[0] = 99
	assert.True(t, s.IsSelected(4))

	assert.Equal(t, SelectNone, s.TogglePage(page).Kind())

	one := Selection{}.Toggle(5).TogglePage([]uint{4, 5, 6})
	assert.True(t, one.AllSelected())

	assert.Equal(t, SelectNone, Selection{}.TogglePage(nil).Kind())
}

func TestSelectionRowClickLeavesPageMode(t *testing.T) {
	s := Selection{}.TogglePage([]uint{1, 2, 3}).Toggle(2)
	assert.Equal(t, SelectOne, s.Kind())
	assert.True(t, s.CanAct(2))
	assert.False(t, s.IsSelected(1))
}
