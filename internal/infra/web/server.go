// Package web serves the conversation to browsers: a JSON history endpoint
// and a websocket that pushes every snapshot and state change.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"voicechat/internal/application"
	"voicechat/internal/domain"
)

type historyMessage struct {
	Type    string        `json:"type"`
	Session string        `json:"session"`
	State   string        `json:"state"`
	Turns   []domain.Turn `json:"turns"`
}

type statusMessage struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

type Server struct {
	addr    string
	session string
	logger  *slog.Logger
	hub     *hub
	mux     *http.ServeMux

	upgrader ws.Upgrader

	mu      sync.RWMutex
	turns   []domain.Turn
	state   application.State
	server  *http.Server
	running bool
}

// NewServer builds the presentation server. metrics may be nil, in which case
// /metrics is not served.
func NewServer(addr, session string, metrics http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		addr:    addr,
		session: session,
		logger:  logger,
		hub:     newHub(logger),
		mux:     http.NewServeMux(),
		turns:   []domain.Turn{},
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		s.logger.Info("web presenter starting", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.hub.closeAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}

func (s *Server) Render(turns []domain.Turn) {
	s.mu.Lock()
	s.turns = turns
	msg := s.historyLocked()
	s.mu.Unlock()

	s.broadcast(msg)
}

func (s *Server) Status(state application.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.broadcast(statusMessage{Type: "status", State: state.String()})
}

func (s *Server) Clients() int {
	return s.hub.count()
}

func (s *Server) historyLocked() historyMessage {
	return historyMessage{
		Type:    "history",
		Session: s.session,
		State:   s.state.String(),
		Turns:   s.turns,
	}
}

func (s *Server) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding websocket message", "error", err)
		return
	}
	s.hub.broadcast(data)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	msg := s.historyLocked()
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		s.logger.Error("writing history", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}

	s.mu.RLock()
	greeting, err := json.Marshal(s.historyLocked())
	s.mu.RUnlock()
	if err != nil {
		conn.Close()
		return
	}

	s.hub.add(conn, greeting)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	state := s.state
	turns := len(s.turns)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","state":"%s","turns":%d,"clients":%d}`, state, turns, s.hub.count())
}
