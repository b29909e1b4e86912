package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"desk-clock/internal/hittest"
)

// ErrWindowUnavailable is returned when the overlay window has no usable geometry
var ErrWindowUnavailable = errors.New("window unavailable")

// Window reads the overlay window's bounds through the Wails runtime.
// The context handed to WindowRect must be the one Wails passed to OnStartup.
type Window struct {
	position  func(ctx context.Context) (int, int)
	size      func(ctx context.Context) (int, int)
	minimised func(ctx context.Context) bool
}

// NewWindow creates a window source backed by the Wails runtime
func NewWindow() *Window {
	return &Window{
		position:  runtime.WindowGetPosition,
		size:      runtime.WindowGetSize,
		minimised: runtime.WindowIsMinimised,
	}
}

// WindowRect returns the current window bounds
func (w *Window) WindowRect(ctx context.Context) (hittest.Rect, error) {
	if ctx == nil {
		return hittest.Rect{}, ErrWindowUnavailable
	}
	if err := ctx.Err(); err != nil {
		return hittest.Rect{}, fmt.Errorf("%w: %v", ErrWindowUnavailable, err)
	}
	if w.minimised(ctx) {
		return hittest.Rect{}, fmt.Errorf("%w: minimised", ErrWindowUnavailable)
	}

	x, y := w.position(ctx)
	width, height := w.size(ctx)
	if width <= 0 || height <= 0 {
		return hittest.Rect{}, fmt.Errorf("%w: size %dx%d", ErrWindowUnavailable, width, height)
	}

	return hittest.Rect{X: x, Y: y, Width: width, Height: height}, nil
}
