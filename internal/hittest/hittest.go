package hittest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

// DefaultInterval is the sampling cadence used when none is configured.
const DefaultInterval = 300 * time.Millisecond

// Point is a cursor position in global screen coordinates
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is the window's bounding box in global screen coordinates
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether p lies inside r. Edges are half-open:
// the left and top edges are inside, the right and bottom edges are not.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Pixel is a single RGBA sample
type Pixel struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Transparent reports whether the pixel is fully transparent
func (p Pixel) Transparent() bool {
	return p.A == 0
}

// PixelFromBuffer reads the first pixel of an RGBA buffer. A short buffer
// yields an opaque pixel so a broken capture never turns click-through on.
func PixelFromBuffer(buf []byte) Pixel {
	if len(buf) < 4 {
		return Pixel{A: 255}
	}
	return Pixel{R: buf[0], G: buf[1], B: buf[2], A: buf[3]}
}

// CursorSource reports the global cursor position
type CursorSource interface {
	CursorPosition(ctx context.Context) (Point, error)
}

// WindowSource reports the overlay window's current bounds
type WindowSource interface {
	WindowRect(ctx context.Context) (Rect, error)
}

// Capturer captures a 1x1 region of the rendered surface at window-local
// coordinates and returns its RGBA bytes. It may block until the host's
// rendering pipeline answers.
type Capturer interface {
	CapturePixel(ctx context.Context, x, y int) ([]byte, error)
}

// Window is the mutator applied to the overlay window
type Window interface {
	SetIgnoreMouseEvents(ignore bool)
}

// Observer is notified with every applied passthrough decision
type Observer func(passthrough bool)

// Options configures a Tester
type Options struct {
	Interval time.Duration
	// DropStale discards a capture that completes after a newer one
	// has already been applied.
	DropStale bool
	Observer  Observer
	Logger    logger.Logger
}

// Tester periodically samples the pixel under the cursor and toggles the
// window's click-through flag based on its alpha.
type Tester struct {
	cursor   CursorSource
	window   WindowSource
	capturer Capturer
	target   Window
	opts     Options

	mu          sync.Mutex
	passthrough bool
	seq         uint64
	applied     uint64
	// captures requested at or before floor were superseded by Stop
	floor uint64

	// notifyMu keeps observer calls in apply order
	notifyMu sync.Mutex

	stopChan chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
}

// New creates a new hit-tester
func New(cursor CursorSource, window WindowSource, capturer Capturer, target Window, opts Options) *Tester {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Tester{
		cursor:   cursor,
		window:   window,
		capturer: capturer,
		target:   target,
		opts:     opts,
	}
}

// Start begins the sampling loop. Calling Start on a running tester is a no-op.
func (t *Tester) Start(ctx context.Context) {
	t.mu.Lock()
	if t.stopChan != nil {
		t.mu.Unlock()
		return
	}
	t.stopChan = make(chan struct{})
	t.done = make(chan struct{})
	stop, done := t.stopChan, t.done
	t.mu.Unlock()

	go t.loop(ctx, stop, done)
	t.debugf("hit-test loop started (interval %s)", t.opts.Interval)
}

// Stop ends the sampling loop and leaves the window capturing mouse input.
func (t *Tester) Stop() {
	t.mu.Lock()
	if t.stopChan == nil {
		t.mu.Unlock()
		return
	}
	stop, done := t.stopChan, t.done
	t.stopChan = nil
	t.done = nil
	t.mu.Unlock()

	close(stop)
	<-done

	t.mu.Lock()
	t.floor = t.seq
	t.mu.Unlock()
	t.apply(false, 0, true)
	t.debugf("hit-test loop stopped")
}

// Passthrough returns the last applied decision
func (t *Tester) Passthrough() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.passthrough
}

func (t *Tester) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick runs one sample-decide-apply step. It returns once the capture has
// been requested; the returned channel is closed when this tick's decision
// has been applied, or immediately when the tick made no decision.
func (t *Tester) Tick(ctx context.Context) <-chan struct{} {
	finished := make(chan struct{})

	p, err := t.cursor.CursorPosition(ctx)
	if err != nil {
		t.debugf("cursor unavailable: %v", err)
		close(finished)
		return finished
	}
	r, err := t.window.WindowRect(ctx)
	if err != nil {
		t.debugf("window geometry unavailable: %v", err)
		close(finished)
		return finished
	}
	if !r.Contains(p) {
		close(finished)
		return finished
	}

	lx, ly := p.X-r.X, p.Y-r.Y

	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		defer close(finished)

		pixel := t.sample(ctx, lx, ly)
		t.apply(pixel.Transparent(), seq, false)
	}()

	return finished
}

// Wait blocks until every in-flight capture has completed
func (t *Tester) Wait() {
	t.inflight.Wait()
}

func (t *Tester) sample(ctx context.Context, x, y int) Pixel {
	buf, err := t.capturer.CapturePixel(ctx, x, y)
	if err != nil {
		t.debugf("capture at (%d,%d) failed: %v", x, y, err)
		return Pixel{A: 255}
	}
	return PixelFromBuffer(buf)
}

func (t *Tester) apply(passthrough bool, seq uint64, force bool) {
	t.mu.Lock()
	if !force {
		if seq <= t.floor {
			t.mu.Unlock()
			return
		}
		if t.opts.DropStale && seq < t.applied {
			t.mu.Unlock()
			return
		}
		if seq > t.applied {
			t.applied = seq
		}
	}
	t.passthrough = passthrough
	t.target.SetIgnoreMouseEvents(passthrough)
	observer := t.opts.Observer
	t.mu.Unlock()

	if observer == nil {
		return
	}

	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	// A later apply may have landed while this one waited; report the
	// window's current state, not this capture's.
	t.mu.Lock()
	current := t.passthrough
	t.mu.Unlock()

	observer(current)
}

func (t *Tester) debugf(format string, args ...interface{}) {
	if t.opts.Logger == nil {
		return
	}
	t.opts.Logger.Debug(fmt.Sprintf(format, args...))
}
