package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/superspike/spike-server-go/internal/config"
	"github.com/superspike/spike-server-go/internal/game"
	"github.com/superspike/spike-server-go/internal/game/rules"
)

const shutdownTimeout = 5 * time.Second

// Server drives a match on a fixed tick and bridges it to websocket
// clients: JSON inputs in, msgpack snapshots out.
type Server struct {
	cfg      config.ServerConfig
	match    *game.Match
	logger   *zap.Logger
	hub      *hub
	upgrader websocket.Upgrader

	mu      sync.Mutex
	running bool
	ctx     context.Context
}

// New creates a server for match.
func New(cfg config.ServerConfig, match *game.Match, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:    cfg,
		match:  match,
		logger: logger,
		hub:    newHub(logger.Named("hub")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx: context.Background(),
	}
}

// Handler returns the HTTP routes: /health and /ws. /ws answers 503 unless
// Serve is running.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, lis)
}

// Serve runs the tick loop, the broadcast loop and the HTTP server on lis
// until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.ctx = ctx
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.hub.run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.simulate(ctx)
	}()
	go func() {
		defer wg.Done()
		s.broadcast(ctx)
	}()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	s.logger.Info("serving", zap.String("address", lis.Addr().String()))
	go func() {
		errCh <- httpServer.Serve(lis)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

func (s *Server) simulate(ctx context.Context) {
	interval := s.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.match.Tick(interval)
		}
	}
}

func (s *Server) broadcast(ctx context.Context) {
	rate := s.cfg.BroadcastRate
	if rate <= 0 {
		rate = s.cfg.TickRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := s.match.Snapshot().EncodeFrame()
			if err != nil {
				s.logger.Error("encode snapshot", zap.Error(err))
				continue
			}
			if !s.hub.publish(frame) {
				s.logger.Debug("broadcast skipped: hub busy")
			}
		}
	}
}

type healthResponse struct {
	Status  string     `json:"status"`
	MatchID string     `json:"match_id"`
	Phase   string     `json:"phase"`
	Tick    uint64     `json:"tick"`
	Score   game.Score `json:"score"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.match.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		MatchID: snap.MatchID,
		Phase:   snap.Phase,
		Tick:    snap.Tick,
		Score:   snap.Score,
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	team, err := parseTeam(r.URL.Query().Get("team"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	ctx, running := s.ctx, s.running
	s.mu.Unlock()
	// the hub only runs inside Serve
	if !running {
		http.Error(w, "server not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, 64),
		replies: make(chan ServerMessage, 16),
		team:    team,
		remote:  r.RemoteAddr,
		logger:  s.logger.With(zap.String("remote", r.RemoteAddr), zap.Stringer("team", team)),
	}

	select {
	case s.hub.register <- c:
	case <-ctx.Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(ctx, s.hub, s.match)
}

// parseTeam reads the optional team query parameter. Empty means spectator.
func parseTeam(v string) (rules.Team, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || !rules.Team(n).Valid() {
		return 0, fmt.Errorf("invalid team %q", v)
	}
	return rules.Team(n), nil
}
