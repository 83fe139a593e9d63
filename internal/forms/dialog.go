// Package forms implements the edit dialogue contract: a private draft copied
// from the source entity, validation before submit, a single in-flight save and
// close-on-success.
package forms

import (
	"context"
	"errors"
	"sync"

	"github.com/maritime-school/training-admin/internal/validator"
)

var (
	ErrNotOpen    = errors.New("dialog is not open")
	ErrSubmitting = errors.New("a save is already in progress")
)

// Result is what a save callback reports back to the dialog.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Err keeps the typed cause for callers that map it to a status code.
	Err error `json:"-"`
}

// Failed builds an unsuccessful Result from err.
func Failed(err error) Result {
	if err == nil {
		err = errors.New("save failed")
	}
	return Result{Error: err.Error(), Err: err}
}

// Succeeded is the Result of a successful save.
func Succeeded() Result {
	return Result{Success: true}
}

// SaveFunc persists the draft.
type SaveFunc[T any] func(ctx context.Context, draft T) Result

// Dialog holds one entity's edit buffer.
type Dialog[T any] struct {
	mu         sync.Mutex
	validator  *validator.Validator
	open       bool
	draft      T
	submitting bool
	err        string
}

func NewDialog[T any](v *validator.Validator) *Dialog[T] {
	return &Dialog[T]{validator: v}
}

// Open starts editing a shallow copy of src, or a zero value when src is nil.
func (d *Dialog[T]) Open(src *T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var draft T
	if src != nil {
		draft = *src
	}
	d.draft = draft
	d.open = true
	d.submitting = false
	d.err = ""
}

// Edit applies fn to the draft. The source passed to Open is never touched.
func (d *Dialog[T]) Edit(fn func(draft *T)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrNotOpen
	}
	fn(&d.draft)
	return nil
}

// Draft returns a copy of the current draft.
func (d *Dialog[T]) Draft() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Save validates the draft and hands it to onSave. A validation failure or an
// unsuccessful Result keeps the dialog open with the error; success closes it
// and clears the draft.
func (d *Dialog[T]) Save(ctx context.Context, onSave SaveFunc[T]) Result {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return Failed(ErrNotOpen)
	}
	if d.submitting {
		d.mu.Unlock()
		return Failed(ErrSubmitting)
	}
	if d.validator != nil {
		if err := d.validator.Validate(d.draft); err != nil {
			d.err = err.Error()
			d.mu.Unlock()
			return Failed(err)
		}
	}
	d.submitting = true
	d.err = ""
	draft := d.draft
	d.mu.Unlock()

	res := onSave(ctx, draft)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false
	if res.Success {
		var zero T
		d.draft = zero
		d.open = false
		return res
	}
	if res.Error == "" {
		res.Error = "save failed"
	}
	d.err = res.Error
	return res
}

// Close discards the draft without saving.
func (d *Dialog[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	var zero T
	d.draft = zero
	d.open = false
	d.err = ""
}

func (d *Dialog[T]) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Error is the message displayed by the dialog, empty when there is none.
func (d *Dialog[T]) Error() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Dialog[T]) Submitting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitting
}
