package host

import (
	"context"

	"github.com/go-vgo/robotgo"

	"desk-clock/internal/hittest"
)

// Cursor reads the global cursor position
type Cursor struct {
	location func() (int, int)
}

// NewCursor creates a cursor source backed by robotgo
func NewCursor() *Cursor {
	return &Cursor{location: robotgo.Location}
}

// CursorPosition returns the cursor in global screen coordinates
func (c *Cursor) CursorPosition(ctx context.Context) (hittest.Point, error) {
	if err := ctx.Err(); err != nil {
		return hittest.Point{}, err
	}
	x, y := c.location()
	return hittest.Point{X: x, Y: y}, nil
}
