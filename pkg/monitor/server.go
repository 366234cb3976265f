package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"digital.vasic.metassert/pkg/logging"
	"digital.vasic.metassert/pkg/report"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32
)

// Server streams failures to WebSocket clients on /ws and serves
// a JSON snapshot on /failures.
type Server struct {
	mu        sync.RWMutex
	addr      string
	collector *Collector
	logger    logging.Logger
	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	server    *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Snapshot is the /failures response body.
type Snapshot struct {
	Stats    Stats           `json:"stats"`
	Failures []report.Record `json:"failures"`
}

// NewServer creates a monitor server for the collector. A nil
// logger discards log output.
func NewServer(addr string, collector *Collector, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NullLogger{}
	}

	s := &Server{
		addr:      addr,
		collector: collector,
		logger:    logger.WithFields(logging.StringField("component", "monitor")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}

	collector.OnFailure(s.broadcast)
	return s
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/failures", s.handleFailures)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = srv.Close()
			s.closeClients()
		case <-stopped:
		}
	}()

	s.logger.Info("monitor listening", logging.StringField("addr", s.addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server and disconnects all
// WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.closeClients()
	return err
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.ErrorField(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.serve(c)
}

// serve pumps queued messages to the client until it disconnects.
// Incoming messages are read and discarded so close frames are
// noticed.
func (s *Server) serve(c *client) {
	defer s.removeClient(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("websocket write failed", logging.ErrorField(err))
				_ = c.conn.Close()
				<-done
				return
			}
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	_ = c.conn.Close()
}

func (s *Server) closeClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		_ = c.conn.Close()
	}
}

func (s *Server) handleFailures(w http.ResponseWriter, _ *http.Request) {
	failures := s.collector.Failures()
	records := make([]report.Record, 0, len(failures))
	for _, f := range failures {
		records = append(records, f.Record(true))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Snapshot{
		Stats:    s.collector.Stats(),
		Failures: records,
	}); err != nil {
		s.logger.Warn("encode snapshot failed", logging.ErrorField(err))
	}
}

func (s *Server) broadcast(failure report.Failure) {
	data, err := json.Marshal(failure.Record(true))
	if err != nil {
		s.logger.Warn("marshal failure", logging.ErrorField(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}
