package debugserver

import (
	"sync"
	"sync/atomic"

	"github.com/bascanada/alacod-sub000/navigation"
	"github.com/bascanada/alacod-sub000/rollback"
	"github.com/bascanada/alacod-sub000/sim"
	"github.com/bascanada/alacod-sub000/vmath"
)

// View is an immutable copy of the simulation published for inspection.
// Nothing read from a View flows back into the simulation.
type View struct {
	Frame     uint32
	Confirmed uint32
	CellSize  vmath.Fixed
	Target    navigation.GridPos
	Rebuilds  uint32
	Fields    []*navigation.FlowField
	Blocked   navigation.Blocked
	Entities  []sim.EntityTransform
}

// Capture copies what the endpoints need from a state. Flow fields are
// replaced on rebuild rather than mutated, so the pointers are shared.
func Capture(s *sim.State, cellSize vmath.Fixed, confirmed uint32) *View {
	v := &View{
		Frame:     s.Frame,
		Confirmed: confirmed,
		CellSize:  cellSize,
		Target:    s.Nav.Target,
		Rebuilds:  s.Nav.Rebuilds,
		Blocked:   s.Nav.Blocked.Clone(),
		Entities:  sim.Transforms(s),
	}
	for _, f := range s.Nav.Layers {
		if f != nil {
			v.Fields = append(v.Fields, f)
		}
	}
	return v
}

// CaptureSession captures the session's current state
func CaptureSession(sess *rollback.Session) *View {
	return Capture(sess.State(), sess.World().Rules.Navigation.CellSize, sess.ConfirmedFrame())
}

func (v *View) Field(p navigation.Profile) *navigation.FlowField {
	for _, f := range v.Fields {
		if f.Profile == p {
			return f
		}
	}
	return nil
}

// Hub holds the latest view and fans checksums out to websocket subscribers
type Hub struct {
	view atomic.Pointer[View]

	mu   sync.Mutex
	subs map[chan rollback.FrameChecksum]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan rollback.FrameChecksum]struct{})}
}

func (h *Hub) Publish(v *View) { h.view.Store(v) }

// View returns the latest published view, nil before the first publish
func (h *Hub) View() *View { return h.view.Load() }

// PublishChecksums never blocks the simulation; slow subscribers lose
// messages. Returns the number dropped.
func (h *Hub) PublishChecksums(cs []rollback.FrameChecksum) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := 0
	for ch := range h.subs {
		for _, c := range cs {
			select {
			case ch <- c:
			default:
				dropped++
			}
		}
	}
	return dropped
}

// Subscribe registers a checksum feed; call the returned func to leave
func (h *Hub) Subscribe(buffer int) (<-chan rollback.FrameChecksum, func()) {
	ch := make(chan rollback.FrameChecksum, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
