package hittest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeCursor struct {
	p   Point
	err error
}

func (f *fakeCursor) CursorPosition(ctx context.Context) (Point, error) {
	return f.p, f.err
}

type fakeWindow struct {
	r   Rect
	err error
}

func (f *fakeWindow) WindowRect(ctx context.Context) (Rect, error) {
	return f.r, f.err
}

// fakeSurface answers captures from an alpha function over local coordinates
type fakeSurface struct {
	mu    sync.Mutex
	alpha func(x, y int) uint8
	err   error
	empty bool
	calls []Point
}

func (f *fakeSurface) CapturePixel(ctx context.Context, x, y int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Point{X: x, Y: y})
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return []byte{}, nil
	}
	return []byte{0, 0, 0, f.alpha(x, y)}, nil
}

func (f *fakeSurface) captured() []Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Point(nil), f.calls...)
}

type fakeTarget struct {
	mu    sync.Mutex
	state bool
	sets  int
}

func (f *fakeTarget) SetIgnoreMouseEvents(ignore bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = ignore
	f.sets++
}

func (f *fakeTarget) get() (bool, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.sets
}

// clockFace is transparent outside a circle of radius 170 centred in a 340x340 window
func clockFace(x, y int) uint8 {
	dx, dy := x-170, y-170
	if dx*dx+dy*dy > 170*170 {
		return 0
	}
	return 255
}

func newTestTester(cursor Point, surface *fakeSurface) (*Tester, *fakeCursor, *fakeWindow, *fakeTarget) {
	c := &fakeCursor{p: cursor}
	w := &fakeWindow{r: Rect{X: 100, Y: 100, Width: 340, Height: 340}}
	target := &fakeTarget{}
	return New(c, w, surface, target, Options{}), c, w, target
}

func tick(t *testing.T, tester *Tester) {
	t.Helper()
	select {
	case <-tester.Tick(context.Background()):
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not complete")
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: 340, Height: 340}

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{100, 100}, true},
		{Point{439, 439}, true},
		{Point{440, 200}, false},
		{Point{200, 440}, false},
		{Point{99, 200}, false},
		{Point{270, 270}, true},
		{Point{50, 50}, false},
	}

	for _, tc := range tests {
		if got := r.Contains(tc.p); got != tc.want {
			t.Errorf("Contains(%v) = %v; want %v", tc.p, got, tc.want)
		}
	}

	if (Rect{X: 0, Y: 0, Width: 0, Height: 0}).Contains(Point{0, 0}) {
		t.Error("Empty rect should contain nothing")
	}
}

func TestPixelFromBuffer(t *testing.T) {
	p := PixelFromBuffer([]byte{1, 2, 3, 4, 9, 9, 9, 9})
	if p != (Pixel{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("PixelFromBuffer = %+v; want {1 2 3 4}", p)
	}

	for _, buf := range [][]byte{nil, {}, {0, 0, 0}} {
		if got := PixelFromBuffer(buf); got.A != 255 {
			t.Errorf("PixelFromBuffer(%v).A = %d; want 255", buf, got.A)
		}
	}
}

func TestTick_TransparentCorner(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace}
	tester, _, _, target := newTestTester(Point{120, 120}, surface)

	tick(t, tester)

	if !tester.Passthrough() {
		t.Error("Expected passthrough over transparent corner")
	}
	if state, _ := target.get(); !state {
		t.Error("Expected window to ignore mouse events")
	}

	calls := surface.captured()
	if len(calls) != 1 || calls[0] != (Point{20, 20}) {
		t.Errorf("Captured %v; want [{20 20}]", calls)
	}
}

func TestTick_OpaqueFace(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace}
	tester, _, _, target := newTestTester(Point{270, 270}, surface)
	tester.passthrough = true

	tick(t, tester)

	if tester.Passthrough() {
		t.Error("Expected capturing over opaque clock face")
	}
	if state, sets := target.get(); state || sets != 1 {
		t.Errorf("Target state = %v (sets %d); want false (sets 1)", state, sets)
	}
}

func TestTick_OutsideLeavesStateUnchanged(t *testing.T) {
	for _, prior := range []bool{true, false} {
		surface := &fakeSurface{alpha: clockFace}
		tester, _, _, target := newTestTester(Point{50, 50}, surface)
		tester.passthrough = prior

		tick(t, tester)

		if tester.Passthrough() != prior {
			t.Errorf("Passthrough changed from %v", prior)
		}
		if _, sets := target.get(); sets != 0 {
			t.Errorf("SetIgnoreMouseEvents called %d times; want 0", sets)
		}
		if calls := surface.captured(); len(calls) != 0 {
			t.Errorf("Expected no capture, got %v", calls)
		}
	}
}

func TestTick_OutsideGrid(t *testing.T) {
	surface := &fakeSurface{alpha: func(x, y int) uint8 { return 0 }}
	tester, cursor, _, target := newTestTester(Point{}, surface)

	outside := []Point{{99, 99}, {440, 440}, {440, 100}, {100, 440}, {0, 0}, {-5, 200}, {1000, 1000}}
	for _, p := range outside {
		cursor.p = p
		tick(t, tester)
	}

	if tester.Passthrough() {
		t.Error("Passthrough changed for cursor outside window")
	}
	if _, sets := target.get(); sets != 0 {
		t.Errorf("SetIgnoreMouseEvents called %d times; want 0", sets)
	}
}

func TestTick_AlphaDecision(t *testing.T) {
	tests := []struct {
		alpha uint8
		want  bool
	}{
		{0, true},
		{1, false},
		{128, false},
		{255, false},
	}

	for _, tc := range tests {
		a := tc.alpha
		surface := &fakeSurface{alpha: func(x, y int) uint8 { return a }}
		tester, _, _, _ := newTestTester(Point{200, 200}, surface)

		tick(t, tester)

		if got := tester.Passthrough(); got != tc.want {
			t.Errorf("alpha %d: Passthrough = %v; want %v", tc.alpha, got, tc.want)
		}
	}
}

func TestTick_Idempotent(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace}
	tester, _, _, target := newTestTester(Point{120, 120}, surface)

	tick(t, tester)
	first := tester.Passthrough()
	tick(t, tester)
	second := tester.Passthrough()

	if first != second {
		t.Errorf("Passthrough changed between identical ticks: %v then %v", first, second)
	}
	if state, _ := target.get(); state != second {
		t.Errorf("Target state %v does not match Passthrough %v", state, second)
	}
}

func TestTick_CaptureFailureIsOpaque(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace, err: errors.New("surface lost")}
	tester, _, _, target := newTestTester(Point{120, 120}, surface)
	tester.passthrough = true

	tick(t, tester)

	if tester.Passthrough() {
		t.Error("Capture failure must resolve to capturing")
	}
	if state, _ := target.get(); state {
		t.Error("Window left ignoring mouse events after capture failure")
	}
}

func TestTick_EmptyBufferIsOpaque(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace, empty: true}
	tester, _, _, _ := newTestTester(Point{120, 120}, surface)
	tester.passthrough = true

	tick(t, tester)

	if tester.Passthrough() {
		t.Error("Empty capture must resolve to capturing")
	}
}

func TestTick_GeometryFailureSkips(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace}
	tester, cursor, window, target := newTestTester(Point{120, 120}, surface)

	window.err = errors.New("window destroyed")
	tick(t, tester)

	window.err = nil
	cursor.err = errors.New("no cursor")
	tick(t, tester)

	if _, sets := target.get(); sets != 0 {
		t.Errorf("SetIgnoreMouseEvents called %d times; want 0", sets)
	}
	if calls := surface.captured(); len(calls) != 0 {
		t.Errorf("Expected no capture, got %v", calls)
	}
}

func TestTick_Observer(t *testing.T) {
	var mu sync.Mutex
	var seen []bool

	surface := &fakeSurface{alpha: clockFace}
	c := &fakeCursor{p: Point{120, 120}}
	w := &fakeWindow{r: Rect{X: 100, Y: 100, Width: 340, Height: 340}}
	tester := New(c, w, surface, &fakeTarget{}, Options{
		Observer: func(passthrough bool) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, passthrough)
		},
	})

	tick(t, tester)
	c.p = Point{270, 270}
	tick(t, tester)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Errorf("Observer saw %v; want [true false]", seen)
	}
}

// gatedSurface blocks each capture until released
type gatedSurface struct {
	gates chan chan uint8
}

func (g *gatedSurface) CapturePixel(ctx context.Context, x, y int) ([]byte, error) {
	gate := make(chan uint8)
	g.gates <- gate
	select {
	case a := <-gate:
		return []byte{0, 0, 0, a}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestTick_DoesNotBlockOnCapture(t *testing.T) {
	g := &gatedSurface{gates: make(chan chan uint8, 2)}
	c := &fakeCursor{p: Point{120, 120}}
	w := &fakeWindow{r: Rect{X: 100, Y: 100, Width: 340, Height: 340}}
	tester := New(c, w, g, &fakeTarget{}, Options{})

	first := tester.Tick(context.Background())
	second := tester.Tick(context.Background())

	gate1 := <-g.gates
	gate2 := <-g.gates

	// Newer capture finishes first, older one last: last write wins.
	gate2 <- 255
	<-second
	if tester.Passthrough() {
		t.Error("Expected capturing after first completion")
	}
	gate1 <- 0
	<-first
	if !tester.Passthrough() {
		t.Error("Expected last completed capture to win")
	}
}

func TestTick_DropStale(t *testing.T) {
	g := &gatedSurface{gates: make(chan chan uint8, 2)}
	c := &fakeCursor{p: Point{120, 120}}
	w := &fakeWindow{r: Rect{X: 100, Y: 100, Width: 340, Height: 340}}
	target := &fakeTarget{}
	tester := New(c, w, g, target, Options{DropStale: true})

	first := tester.Tick(context.Background())
	second := tester.Tick(context.Background())

	gate1 := <-g.gates
	gate2 := <-g.gates

	gate2 <- 255
	<-second
	gate1 <- 0
	<-first

	if tester.Passthrough() {
		t.Error("Stale capture should have been dropped")
	}
	if _, sets := target.get(); sets != 1 {
		t.Errorf("SetIgnoreMouseEvents called %d times; want 1", sets)
	}
}

func TestStartStop(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace}
	c := &fakeCursor{p: Point{120, 120}}
	w := &fakeWindow{r: Rect{X: 100, Y: 100, Width: 340, Height: 340}}
	target := &fakeTarget{}
	tester := New(c, w, surface, target, Options{Interval: 5 * time.Millisecond})

	tester.Start(context.Background())
	tester.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for !tester.Passthrough() {
		if time.Now().After(deadline) {
			t.Fatal("loop never applied a decision")
		}
		time.Sleep(5 * time.Millisecond)
	}

	tester.Stop()
	tester.Wait()

	if tester.Passthrough() {
		t.Error("Stop should leave the window capturing")
	}
	if state, _ := target.get(); state {
		t.Error("Window still ignoring mouse events after Stop")
	}

	// A second Stop is a no-op.
	tester.Stop()
}

func TestNew_DefaultInterval(t *testing.T) {
	tester := New(&fakeCursor{}, &fakeWindow{}, &fakeSurface{}, &fakeTarget{}, Options{})
	if tester.opts.Interval != DefaultInterval {
		t.Errorf("Interval = %s; want %s", tester.opts.Interval, DefaultInterval)
	}
}

func TestTick_ObserverFollowsApplyOrder(t *testing.T) {
	g := &gatedSurface{gates: make(chan chan uint8, 2)}
	c := &fakeCursor{p: Point{120, 120}}
	w := &fakeWindow{r: Rect{X: 100, Y: 100, Width: 340, Height: 340}}
	target := &fakeTarget{}

	var mu sync.Mutex
	var last bool
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	first := true

	tester := New(c, w, g, target, Options{
		Observer: func(passthrough bool) {
			mu.Lock()
			hold := first
			first = false
			mu.Unlock()

			entered <- struct{}{}
			if hold {
				<-release
			}

			mu.Lock()
			last = passthrough
			mu.Unlock()
		},
	})

	done1 := tester.Tick(context.Background())
	done2 := tester.Tick(context.Background())
	gate1 := <-g.gates
	gate2 := <-g.gates

	// The transparent capture lands first and its notification stalls.
	gate1 <- 0
	<-entered

	// The opaque capture lands while the first notification is still running.
	gate2 <- 255
	deadline := time.Now().Add(2 * time.Second)
	for {
		if state, _ := target.get(); !state {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("second capture was never applied")
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	<-done1
	<-done2

	mu.Lock()
	defer mu.Unlock()
	state, _ := target.get()
	if state || tester.Passthrough() {
		t.Fatalf("window = %v, Passthrough = %v; want false", state, tester.Passthrough())
	}
	if last != state {
		t.Errorf("Observer last saw %v; window state %v", last, state)
	}
}

func TestStop_ObserverSeesCapturing(t *testing.T) {
	surface := &fakeSurface{alpha: clockFace}
	c := &fakeCursor{p: Point{120, 120}}
	w := &fakeWindow{r: Rect{X: 100, Y: 100, Width: 340, Height: 340}}

	var mu sync.Mutex
	var last bool
	tester := New(c, w, surface, &fakeTarget{}, Options{
		Interval: 5 * time.Millisecond,
		Observer: func(passthrough bool) {
			mu.Lock()
			defer mu.Unlock()
			last = passthrough
		},
	})

	tester.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for !tester.Passthrough() {
		if time.Now().After(deadline) {
			t.Fatal("loop never applied a decision")
		}
		time.Sleep(5 * time.Millisecond)
	}
	tester.Stop()
	tester.Wait()

	mu.Lock()
	defer mu.Unlock()
	if last {
		t.Error("Observer should last see capturing after Stop")
	}
}
