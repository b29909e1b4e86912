package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
)

// Event names shared with the frontend
const (
	EventCapture = "hittest:capture"
	EventPixel   = "hittest:pixel"
	EventState   = "hittest:state"
)

var (
	// ErrBridgeClosed is returned for captures pending or requested after Close
	ErrBridgeClosed = errors.New("capture bridge closed")
	// ErrMalformedReply is returned when the frontend answers with an unusable pixel
	ErrMalformedReply = errors.New("malformed pixel reply")
)

// EmitFunc sends an event to the frontend, e.g. runtime.EventsEmit bound to a context
type EmitFunc func(name string, data ...interface{})

// CaptureRequest is the payload of a capture event
type CaptureRequest struct {
	ID uint64 `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

type reply struct {
	rgba []byte
	err  error
}

// Bridge captures pixels of the rendered surface by asking the frontend to
// read its own canvas. Replies are matched to requests by id.
type Bridge struct {
	emit EmitFunc

	mu      sync.Mutex
	next    uint64
	pending map[uint64]chan reply
	closed  bool
}

// NewBridge creates a new capture bridge
func NewBridge(emit EmitFunc) *Bridge {
	return &Bridge{
		emit:    emit,
		pending: make(map[uint64]chan reply),
	}
}

// CapturePixel requests the RGBA bytes at window-local (x, y) and waits for
// the frontend's answer or for ctx to end.
func (b *Bridge) CapturePixel(ctx context.Context, x, y int) ([]byte, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBridgeClosed
	}
	b.next++
	id := b.next
	ch := make(chan reply, 1)
	b.pending[id] = ch
	b.mu.Unlock()

	b.emit(EventCapture, CaptureRequest{ID: id, X: x, Y: y})

	select {
	case r := <-ch:
		return r.rgba, r.err
	case <-ctx.Done():
		b.forget(id)
		return nil, ctx.Err()
	}
}

// HandleReply consumes a pixel event from the frontend. It has the shape of
// a Wails event callback.
func (b *Bridge) HandleReply(data ...interface{}) {
	if len(data) == 0 {
		return
	}
	id, r, ok := decodeReply(data[0])
	if !ok {
		return
	}

	b.mu.Lock()
	ch, exists := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()

	if exists {
		ch <- r
	}
}

// Pending returns the number of captures awaiting a reply
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close fails every pending capture and rejects new ones
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.pending {
		ch <- reply{err: ErrBridgeClosed}
		delete(b.pending, id)
	}
}

func (b *Bridge) forget(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
}

// decodeReply reads {id, rgba, error} as delivered by the Wails event
// runtime: a JSON object decoded into map[string]interface{} with float64 numbers.
func decodeReply(v interface{}) (uint64, reply, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return 0, reply{}, false
	}
	rawID, ok := m["id"].(float64)
	if !ok || rawID < 1 || rawID != math.Trunc(rawID) {
		return 0, reply{}, false
	}
	id := uint64(rawID)

	if msg, ok := m["error"].(string); ok && msg != "" {
		return id, reply{err: fmt.Errorf("frontend capture: %s", msg)}, true
	}

	values, ok := m["rgba"].([]interface{})
	if !ok {
		return id, reply{err: ErrMalformedReply}, true
	}
	rgba := make([]byte, 0, len(values))
	for _, value := range values {
		f, ok := value.(float64)
		if !ok || f < 0 || f > 255 {
			return id, reply{err: ErrMalformedReply}, true
		}
		rgba = append(rgba, byte(f))
	}

	return id, reply{rgba: rgba}, true
}
