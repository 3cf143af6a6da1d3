// Package remote exposes the command set over a local HTTP endpoint, as a
// second command source next to the global hotkeys.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"KeyPacer/control"

	"go.uber.org/zap"
)

const shutdownTimeout = 2 * time.Second

// Status is the body of GET /status.
type Status struct {
	State             string  `json:"state"`
	Rounds            int     `json:"rounds"`
	Key               string  `json:"key"`
	BaseIntervalMs    int64   `json:"base_interval_ms"`
	CurrentIntervalMs int64   `json:"current_interval_ms"`
	SlowDownFactor    float64 `json:"slow_down_factor"`
	SpeedUpFactor     float64 `json:"speed_up_factor"`
	RoundBudget       int     `json:"round_budget"`
}

// Server serves POST /commands/{name}, GET /status and, when a metrics handler
// is set, GET /metrics.
type Server struct {
	addr    string
	status  func() Status
	metrics http.Handler
	log     *zap.Logger

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// New creates a server for addr. Nothing listens until Start.
func New(addr string, status func() Status, metrics http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{addr: addr, status: status, metrics: metrics, log: log}
}

// Handler builds the routing table. handler receives every accepted command.
func (s *Server) Handler(handler func(control.CommandType)) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /commands/{name}", func(w http.ResponseWriter, r *http.Request) {
		cmd, err := control.ParseCommandType(r.PathValue("name"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		s.log.Debug("Remote command", zap.Stringer("command", cmd), zap.String("remote", r.RemoteAddr))
		handler(cmd)
		writeJSON(w, http.StatusAccepted, map[string]string{"command": cmd.String()})
	})
	mux.HandleFunc("GET /commands", func(w http.ResponseWriter, _ *http.Request) {
		names := make([]string, 0, len(control.AllCommandTypes()))
		for _, c := range control.AllCommandTypes() {
			names = append(names, c.String())
		}
		writeJSON(w, http.StatusOK, names)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.status())
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(handler func(control.CommandType)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control endpoint listen %s: %w", s.addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(handler),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.srv, s.ln = srv, ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Control endpoint stopped", zap.Error(err))
		}
	}()
	s.log.Info("Control endpoint listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Release shuts the endpoint down. Calling it again is a no-op.
func (s *Server) Release() error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.ln = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("control endpoint shutdown: %w", err)
	}
	s.log.Debug("Control endpoint closed")
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
