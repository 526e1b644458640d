//go:build !preview || !cgo

package preview

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunWindowUnavailable(t *testing.T) {
	assert.False(t, Available)
	src := func() image.Image { return image.NewRGBA(image.Rect(0, 0, 32, 16)) }
	assert.ErrorIs(t, RunWindow(context.Background(), "test", src, DefaultScale), ErrUnavailable)
}
