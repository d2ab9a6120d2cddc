package editor

import "github.com/CristiGvl/picoFanCtl/internal/curve"

// EventKind identifies an editor notification
type EventKind int

const (
	PointChanged EventKind = iota
	PointSelected
	PointDeselected
)

func (k EventKind) String() string {
	switch k {
	case PointChanged:
		return "point"
	case PointSelected:
		return "select"
	case PointDeselected:
		return "deselect"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the editor changes state
type Event struct {
	Kind  EventKind
	Index int
	Point curve.TempPoint
}

// Listener receives editor events on the editor's goroutine
type Listener func(Event)

// Subscription is a registered listener that can be detached
type Subscription struct {
	owner *observers
	id    uint64
}

// Detach stops event delivery. Calling it more than once is a no-op.
func (s *Subscription) Detach() {
	if s == nil || s.owner == nil {
		return
	}
	s.owner.remove(s.id)
	s.owner = nil
}

type observer struct {
	id uint64
	fn Listener
}

type observers struct {
	next uint64
	list []observer
}

// Subscribe registers l for editor events
func (e *Editor) Subscribe(l Listener) *Subscription {
	return e.observers.add(l)
}

func (o *observers) add(l Listener) *Subscription {
	o.next++
	o.list = append(o.list, observer{id: o.next, fn: l})
	return &Subscription{owner: o, id: o.next}
}

func (o *observers) remove(id uint64) {
	for i, ob := range o.list {
		if ob.id == id {
			o.list = append(o.list[:i:i], o.list[i+1:]...)
			return
		}
	}
}

func (o *observers) emit(ev Event) {
	if len(o.list) == 0 {
		return
	}
	snapshot := make([]observer, len(o.list))
	copy(snapshot, o.list)
	for _, ob := range snapshot {
		ob.fn(ev)
	}
}
