package remote

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/editor"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/preset"
	"github.com/CristiGvl/picoFanCtl/internal/render"
	"github.com/CristiGvl/picoFanCtl/internal/status"
	"github.com/gorilla/websocket"
)

type statusUpdate struct {
	st  fan.Status
	err error
}

// session owns one canvas connection. Only run touches the editor, the
// curve and the connection writer.
type session struct {
	svc    *control.Service
	cfg    Config
	conn   *websocket.Conn
	mapper *editor.Mapper
	editor *editor.Editor
	preset preset.Preset
	poller *status.Poller

	pending  []Outbound
	statuses chan statusUpdate
	results  chan func()
	done     chan struct{}
}

func newSession(svc *control.Service, cfg Config, conn *websocket.Conn) *session {
	s := &session{
		svc:      svc,
		cfg:      cfg,
		conn:     conn,
		mapper:   editor.NewMapper(cfg.Padding, cfg.Editor.Density),
		statuses: make(chan statusUpdate, 1),
		results:  make(chan func(), 8),
		done:     make(chan struct{}),
	}
	s.editor = editor.New(curve.MustNew(preset.Default().Points, svc.Options()), s.mapper, cfg.Editor)
	s.editor.SetArbiter(s)
	s.editor.Subscribe(s.onEditorEvent)
	s.poller = status.NewPoller(svc.Channel(), cfg.PollInterval, s.onStatus)
	return s
}

// RequestExclusive tells the canvas to stop scrolling or zooming.
func (s *session) RequestExclusive() {
	s.queue(captureMsg(true))
}

// Release hands pointer ownership back to the canvas.
func (s *session) Release() {
	s.queue(captureMsg(false))
}

func (s *session) onEditorEvent(ev editor.Event) {
	switch ev.Kind {
	case editor.PointChanged:
		s.queue(pointMsg(ev.Index, ev.Point))
	case editor.PointSelected:
		s.queue(Outbound{T: "select", Idx: intp(ev.Index)})
	case editor.PointDeselected:
		s.queue(Outbound{T: "deselect"})
	}
}

// onStatus runs on the poller goroutine and hands the reading to the loop.
func (s *session) onStatus(st fan.Status, err error) {
	select {
	case s.statuses <- statusUpdate{st: st, err: err}:
	case <-s.done:
	default:
		// the loop has not consumed the previous reading; keep the older one
	}
}

// post schedules fn on the session loop. Used by commit callbacks.
func (s *session) post(fn func()) {
	select {
	case s.results <- fn:
	case <-s.done:
	}
}

func (s *session) queue(msg Outbound) {
	s.pending = append(s.pending, msg)
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(s.done)
	defer s.poller.Stop()

	inbox := make(chan Message)
	go func() {
		defer close(inbox)
		for {
			var msg Message
			if err := s.conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbox <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	if p, err := s.svc.Current(ctx); err == nil {
		s.load(p)
	}
	if !s.flush() {
		return
	}

	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			s.handle(ctx, msg)
		case up := <-s.statuses:
			if up.err != nil {
				s.queue(errorMsg(up.err))
			} else {
				s.queue(statusMsg(up.st))
			}
		case fn := <-s.results:
			fn()
		case <-ctx.Done():
			return
		}
		if !s.flush() {
			return
		}
	}
}

func (s *session) handle(ctx context.Context, msg Message) {
	switch msg.T {
	case "load":
		p, err := s.svc.Preset(ctx, msg.ID)
		if err != nil {
			s.queue(errorMsg(err))
			return
		}
		s.load(p)
	case "resize":
		if msg.Density > 0 {
			s.mapper.SetDensity(msg.Density)
			s.editor.SetDensity(msg.Density)
		}
		s.mapper.Resize(msg.W, msg.H)
		s.frame()
	case "down":
		s.editor.PointerDown(msg.X, msg.Y)
		s.frame()
	case "move":
		if s.editor.PointerMove(msg.X, msg.Y) {
			s.frame()
		}
	case "up":
		s.editor.PointerUp(msg.X, msg.Y)
		s.frame()
	case "cancel":
		s.editor.PointerCancel()
		s.frame()
	case "setTemp":
		s.manual(s.editor.SetTemperature(msg.Idx, msg.Value))
	case "setFan":
		s.manual(s.editor.SetDuty(msg.Idx, msg.Value))
	case "visible":
		if msg.Visible == nil {
			return
		}
		s.poller.SetVisible(ctx, *msg.Visible)
		if !*msg.Visible {
			select {
			case <-s.statuses:
			default:
			}
		}
	case "commit":
		s.commit(msg.Name)
	case "apply":
		s.apply()
	default:
		log.Printf("Editor: ignoring message %q", msg.T)
	}
}

func (s *session) load(p preset.Preset) {
	c, err := p.Curve(s.svc.Options())
	if err != nil {
		s.queue(errorMsg(err))
		return
	}
	s.preset = p
	s.editor.SetCurve(c)
	s.queue(loadedMsg(p))
	s.frame()
}

func (s *session) manual(err error) {
	if err != nil {
		s.queue(errorMsg(err))
		return
	}
	s.frame()
}

// edited returns the loaded preset carrying the edited points
func (s *session) edited() (preset.Preset, error) {
	c := s.editor.Curve()
	if err := c.Validate(); err != nil {
		return preset.Preset{}, err
	}
	p := s.preset
	p.Points = c.Points()
	return p, nil
}

// commit saves the edited curve. A new name renames a stored preset in
// place; Default is always saved as a new preset.
func (s *session) commit(name string) {
	p, err := s.edited()
	if err != nil {
		s.queue(errorMsg(err))
		return
	}
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	} else if p.IsDefault() {
		p.Name = preset.DefaultCustomName
	}
	err = s.svc.Save(p, func(saved preset.Preset, err error) {
		s.post(func() {
			if err != nil {
				s.queue(errorMsg(err))
				return
			}
			s.preset = saved
			s.queue(Outbound{T: "saved", ID: saved.ID, Name: saved.Name})
		})
	})
	if err != nil {
		s.queue(errorMsg(err))
	}
}

func (s *session) apply() {
	p, err := s.edited()
	if err != nil {
		s.queue(errorMsg(err))
		return
	}
	err = s.svc.ApplyAsync(p, func(err error) {
		s.post(func() {
			if err != nil {
				s.queue(errorMsg(err))
				return
			}
			s.queue(Outbound{T: "applied", ID: p.ID, Name: p.Name})
		})
	})
	if err != nil {
		s.queue(errorMsg(err))
	}
}

// frame queues a redraw once the canvas has reported its size
func (s *session) frame() {
	w, h := s.mapper.Size()
	if w <= 0 || h <= 0 {
		return
	}
	style := s.cfg.Theme.Resolve(s.mapper.Density())
	scene := render.Render(s.editor.Curve(), s.mapper, s.editor.Selection().Index, style, s.cfg.Render)
	s.queue(frameMsg(scene))
}

// flush writes queued messages. It reports false when the connection failed.
func (s *session) flush() bool {
	pending := s.pending
	s.pending = nil
	for _, msg := range pending {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteJSON(msg); err != nil {
			return false
		}
	}
	return true
}
