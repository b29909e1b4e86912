//go:build !windows

package host

// ClickThrough is a no-op on non-Windows platforms
type ClickThrough struct {
	title string
}

// NewClickThrough creates a click-through switch (stub for non-Windows)
func NewClickThrough(title string) *ClickThrough {
	return &ClickThrough{title: title}
}

// SetIgnoreMouseEvents is a no-op on non-Windows platforms
func (c *ClickThrough) SetIgnoreMouseEvents(ignore bool) {
	// No-op
}

// Reset is a no-op on non-Windows platforms
func (c *ClickThrough) Reset() {
	// No-op
}
