//go:build windows

package host

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows constants for extended window styles
const (
	_GWL_EXSTYLE       int32 = -20
	_WS_EX_TRANSPARENT int32 = 0x00000020
	_WS_EX_LAYERED     int32 = 0x00080000
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW    = user32.NewProc("FindWindowW")
	procGetWindowLongW = user32.NewProc("GetWindowLongW")
	procSetWindowLongW = user32.NewProc("SetWindowLongW")
)

// ClickThrough toggles WS_EX_TRANSPARENT on the overlay window so mouse
// events pass through to whatever is beneath it.
type ClickThrough struct {
	title string

	mu   sync.Mutex
	hwnd uintptr
}

// NewClickThrough creates a click-through switch for the window with the given title
func NewClickThrough(title string) *ClickThrough {
	return &ClickThrough{title: title}
}

// resolve finds and caches the HWND of the overlay window by its title
func (c *ClickThrough) resolve() uintptr {
	if c.hwnd != 0 {
		return c.hwnd
	}

	title, err := windows.UTF16PtrFromString(c.title)
	if err != nil {
		return 0
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
	c.hwnd = hwnd
	return hwnd
}

// SetIgnoreMouseEvents enables or disables click-through. Setting the current
// value leaves the window untouched.
func (c *ClickThrough) SetIgnoreMouseEvents(ignore bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hwnd := c.resolve()
	if hwnd == 0 {
		return
	}

	idx := _GWL_EXSTYLE
	exStyle, _, _ := procGetWindowLongW.Call(hwnd, uintptr(idx))
	cur := int32(exStyle)
	newStyle := cur | _WS_EX_LAYERED
	if ignore {
		newStyle = newStyle | _WS_EX_TRANSPARENT
	} else {
		newStyle = newStyle &^ _WS_EX_TRANSPARENT
	}
	if newStyle == cur {
		return
	}

	procSetWindowLongW.Call(hwnd, uintptr(idx), uintptr(newStyle))
}

// Reset forgets the cached window handle, e.g. after the window was recreated
func (c *ClickThrough) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hwnd = 0
}
