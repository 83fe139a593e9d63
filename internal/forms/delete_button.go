package forms

import "sync"

// DeleteButton is a two-click confirmation: the first click arms it, the
// second confirms.
type DeleteButton struct {
	mu    sync.Mutex
	armed bool
}

// Click reports whether this click confirms the deletion.
func (b *DeleteButton) Click() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.armed {
		b.armed = false
		return true
	}
	b.armed = true
	return false
}

func (b *DeleteButton) Armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.armed
}

func (b *DeleteButton) Disarm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.armed = false
}
