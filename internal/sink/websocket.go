package sink

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/traffic.pulse/internal/monitoring"
)

// Edge is the wire message pushed to the display agent for each activity
// transition.
type Edge struct {
	Event string    `json:"event"` // "start" or "stop"
	At    time.Time `json:"at"`
}

// Dialer abstracts websocket connection establishment so tests can supply a
// fake. The production implementation is the gorilla default dialer.
type Dialer interface {
	Dial(url string) (Conn, error)
}

// Conn is the subset of a websocket connection the sink needs.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type gorillaDialer struct{}

func (gorillaDialer) Dial(url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	return c, err
}

// WebsocketSink pushes activity edges over a websocket to a remote display
// agent (an LED controller, a dashboard). Edges are queued on a small buffer
// and written by a background goroutine, so a slow or absent display never
// blocks packet detection. When the buffer is full the oldest edge is
// dropped: the display only cares about the latest state.
type WebsocketSink struct {
	url    string
	dialer Dialer

	mu     sync.Mutex
	conn   Conn
	edges  chan Edge
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// WebsocketSinkConfig contains configuration options for a WebsocketSink.
type WebsocketSinkConfig struct {
	// URL is the ws:// or wss:// endpoint of the display agent.
	URL string

	// Dialer overrides connection establishment. Nil uses the gorilla
	// default dialer.
	Dialer Dialer

	// Buffer is the edge queue depth. Zero defaults to 8.
	Buffer int
}

// NewWebsocketSink creates the sink and starts its writer goroutine. The
// first connection attempt happens lazily when the first edge arrives.
func NewWebsocketSink(cfg WebsocketSinkConfig) *WebsocketSink {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = gorillaDialer{}
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 8
	}

	s := &WebsocketSink{
		url:    cfg.URL,
		dialer: dialer,
		edges:  make(chan Edge, buffer),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s
}

func (s *WebsocketSink) Start() { s.enqueue(Edge{Event: "start", At: time.Now()}) }
func (s *WebsocketSink) Stop()  { s.enqueue(Edge{Event: "stop", At: time.Now()}) }

func (s *WebsocketSink) enqueue(e Edge) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	for {
		select {
		case s.edges <- e:
			return
		default:
		}
		// Queue full: drop the oldest edge to make room.
		select {
		case dropped := <-s.edges:
			monitoring.Logf("websocket sink: dropped %s edge, display is behind", dropped.Event)
		default:
		}
	}
}

// writeLoop owns the connection: it dials on demand, writes queued edges and
// redials after a write failure.
func (s *WebsocketSink) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case e := <-s.edges:
			if err := s.write(e); err != nil {
				monitoring.Logf("websocket sink: write failed: %v", err)
			}
		}
	}
}

func (s *WebsocketSink) write(e Edge) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(e); err != nil {
		s.dropConnection(conn)
		return err
	}
	return nil
}

func (s *WebsocketSink) connection() (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.dialer.Dial(s.url)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("websocket sink: connected to %s", s.url)
	s.conn = conn
	return conn, nil
}

func (s *WebsocketSink) dropConnection(conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn {
		s.conn = nil
	}
	conn.Close()
}

// Close stops the writer goroutine and closes the connection. Pending queued
// edges are discarded. Close is idempotent.
func (s *WebsocketSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
