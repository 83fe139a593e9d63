package forms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/maritime-school/training-admin/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formation struct {
	Formation          string `json:"formation" validate:"required"`
	CapaciteAbsorption int    `json:"capaciteAbsorption" validate:"gt=0"`
}

func TestDialogEditsDraftOnly(t *testing.T) {
	d := NewDialog[formation](validator.New())
	src := formation{Formation: "ملاحة", CapaciteAbsorption: 20}

	d.Open(&src)
	require.NoError(t, d.Edit(func(f *formation) { f.Formation = "إنقاذ" }))

	assert.Equal(t, "ملاحة", src.Formation)
	assert.Equal(t, "إنقاذ", d.Draft().Formation)
}

func TestDialogCreateStartsEmpty(t *testing.T) {
	d := NewDialog[formation](nil)
	d.Open(nil)
	assert.True(t, d.IsOpen())
	assert.Equal(t, formation{}, d.Draft())
}

func TestDialogFailedSaveStaysOpen(t *testing.T) {
	d := NewDialog[formation](validator.New())
	d.Open(&formation{Formation: "ملاحة", CapaciteAbsorption: 20})

	res := d.Save(context.Background(), func(ctx context.Context, f formation) Result {
		return Result{Success: false, Error: "X"}
	})

	assert.False(t, res.Success)
	assert.True(t, d.IsOpen())
	assert.Equal(t, "X", d.Error())
	assert.Equal(t, "ملاحة", d.Draft().Formation)
	assert.False(t, d.Submitting())
}

func TestDialogSuccessfulSaveClosesAndClears(t *testing.T) {
	d := NewDialog[formation](validator.New())
	d.Open(&formation{Formation: "ملاحة", CapaciteAbsorption: 20})

	var saved formation
	res := d.Save(context.Background(), func(ctx context.Context, f formation) Result {
		saved = f
		return Succeeded()
	})

	assert.True(t, res.Success)
	assert.False(t, d.IsOpen())
	assert.Empty(t, d.Error())
	assert.Equal(t, formation{}, d.Draft())
	assert.Equal(t, "ملاحة", saved.Formation)
}

func TestDialogValidationBlocksCallback(t *testing.T) {
	d := NewDialog[formation](validator.New())
	d.Open(nil)

	called := false
	res := d.Save(context.Background(), func(ctx context.Context, f formation) Result {
		called = true
		return Succeeded()
	})

	assert.False(t, called)
	assert.False(t, res.Success)
	assert.True(t, d.IsOpen())
	assert.NotEmpty(t, d.Error())

	var verrs validator.ValidationErrors
	assert.True(t, errors.As(res.Err, &verrs))
	assert.Len(t, verrs, 2)
}

func TestDialogRejectsConcurrentSubmit(t *testing.T) {
	d := NewDialog[formation](nil)
	d.Open(&formation{Formation: "a", CapaciteAbsorption: 1})

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Save(context.Background(), func(ctx context.Context, f formation) Result {
			close(started)
			<-release
			return Succeeded()
		})
	}()

	<-started
	assert.True(t, d.Submitting())
	res := d.Save(context.Background(), func(ctx context.Context, f formation) Result {
		t.Error("second save must not run")
		return Succeeded()
	})
	assert.ErrorIs(t, res.Err, ErrSubmitting)

	close(release)
	wg.Wait()
	assert.False(t, d.IsOpen())
}

func TestDialogSaveWhenClosed(t *testing.T) {
	d := NewDialog[formation](nil)
	res := d.Save(context.Background(), func(ctx context.Context, f formation) Result { return Succeeded() })
	assert.ErrorIs(t, res.Err, ErrNotOpen)
	assert.ErrorIs(t, d.Edit(func(*formation) {}), ErrNotOpen)
}

func TestDialogCloseDiscards(t *testing.T) {
	d := NewDialog[formation](nil)
	d.Open(&formation{Formation: "a"})
	d.Close()
	assert.False(t, d.IsOpen())
	assert.Equal(t, formation{}, d.Draft())
}

func TestDeleteButton(t *testing.T) {
	var b DeleteButton
	assert.False(t, b.Click())
	assert.True(t, b.Armed())
	assert.True(t, b.Click())
	assert.False(t, b.Armed())

	b.Click()
	b.Disarm()
	assert.False(t, b.Armed())
	assert.False(t, b.Click())
}

func TestFailedDefaultsMessage(t *testing.T) {
	res := Failed(nil)
	assert.False(t, res.Success)
	assert.Equal(t, "save failed", res.Error)
}
