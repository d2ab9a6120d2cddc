package remote

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/CristiGvl/picoFanCtl/internal/editor"
	"github.com/CristiGvl/picoFanCtl/internal/render"
	"github.com/CristiGvl/picoFanCtl/internal/status"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Config tunes editor sessions.
type Config struct {
	Editor       editor.Config
	Padding      editor.Padding
	Theme        render.Theme
	Render       render.Options
	PollInterval time.Duration
}

// Server accepts editor websocket connections. Each connection gets its own
// session and event loop.
type Server struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	svc      *control.Service
	cfg      Config
	conns    map[*websocket.Conn]struct{}
	wg       sync.WaitGroup
}

// NewServer creates an editor websocket server.
func NewServer(svc *control.Service, cfg Config) *Server {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = status.DefaultInterval
	}
	return &Server{
		svc: svc,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and runs the session until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.track(conn)
	defer s.untrack(conn)

	log.Printf("Editor session opened from %s", r.RemoteAddr)
	sess := newSession(s.svc, s.cfg, conn)
	sess.run(context.Background())
	log.Printf("Editor session closed from %s", r.RemoteAddr)
}

// Close disconnects every active session and waits for their loops to end.
func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) track(conn *websocket.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
	s.wg.Done()
}
