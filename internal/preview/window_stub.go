//go:build !preview || !cgo

package preview

import (
	"context"
	"errors"
)

// Available reports whether this build can open a window
const Available = false

// ErrUnavailable is returned by RunWindow in builds without the window
var ErrUnavailable = errors.New("preview window not built in (build with cgo and -tags preview)")

// RunWindow is a stub; the window is built with -tags preview and cgo
func RunWindow(_ context.Context, _ string, _ Source, _ int) error {
	return ErrUnavailable
}
