package picker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPickerReadsStdout(t *testing.T) {
	dir := t.TempDir()
	p := NewCommandPicker([]string{"echo", dir}, time.Second)

	selected, err := p.PickDirectory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, selected)
}

func TestCommandPickerCancelledDialog(t *testing.T) {
	p := NewCommandPicker([]string{"false"}, time.Second)

	selected, err := p.PickDirectory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestCommandPickerTimeout(t *testing.T) {
	p := NewCommandPicker([]string{"sleep", "5"}, 50*time.Millisecond)

	_, err := p.PickDirectory(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommandPickerMissingBinary(t *testing.T) {
	p := NewCommandPicker([]string{"definitely-not-a-dialog-binary"}, time.Second)

	_, err := p.PickDirectory(context.Background())
	assert.Error(t, err)
}

func TestDisabledPicker(t *testing.T) {
	_, err := Disabled{}.PickDirectory(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewCommandPicker(nil, 0).PickDirectory(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
