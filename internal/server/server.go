// Package server hands terrain buffers to browser renderers over HTTP and
// WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/fractal-terrain/internal/config"
	"github.com/Faultbox/fractal-terrain/internal/debug"
	"github.com/Faultbox/fractal-terrain/internal/terrain"
)

// ErrDivTooLarge is returned when a client asks for more cells than the
// server allows.
var ErrDivTooLarge = errors.New("div exceeds server limit")

// CheckDiv reports whether the server may build a terrain with div cells per
// side.
func CheckDiv(cfg config.ServerConfig, div int) error {
	if div > cfg.MaxDiv {
		return fmt.Errorf("%w: %d > %d", ErrDivTooLarge, div, cfg.MaxDiv)
	}
	return nil
}

// client is one WebSocket connection. Writes are serialized per client.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Server serves one shared terrain. The terrain is immutable; regeneration
// swaps the pointer.
type Server struct {
	cfg      config.ServerConfig
	preview  config.PreviewConfig
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	terrain *terrain.Terrain

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

// New creates a server around an already generated terrain.
func New(cfg config.ServerConfig, preview config.PreviewConfig, t *terrain.Terrain, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		preview: preview,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBuffer,
			WriteBufferSize: cfg.WriteBuffer,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		terrain: t,
		clients: make(map[*client]struct{}),
	}
}

// Terrain returns the terrain currently served.
func (s *Server) Terrain() *terrain.Terrain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terrain
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /mesh.trn", s.handleTRN)
	mux.HandleFunc("GET /preview.png", s.handlePreview("png"))
	mux.HandleFunc("GET /preview.bmp", s.handlePreview("bmp"))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Regenerate builds a new terrain from the current settings with the
// request's overrides applied, then swaps it in.
func (s *Server) Regenerate(req Request) (*terrain.Terrain, error) {
	cfg := s.Terrain().Config()
	if req.Div != 0 {
		cfg.Div = req.Div
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.Roughness != nil {
		cfg.Roughness = *req.Roughness
	}
	if err := CheckDiv(s.cfg, cfg.Div); err != nil {
		return nil, err
	}

	t, err := terrain.New(cfg, terrain.WithLogger(s.log.Named("terrain")))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.terrain = t
	s.mu.Unlock()

	s.log.Info("regenerated terrain",
		zap.Int("div", cfg.Div),
		zap.Uint64("seed", cfg.Seed),
		zap.Int("vertices", t.VertexCount()),
	)
	return t, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn}
	s.addClient(c)
	defer s.removeClient(c)

	log := s.log.With(zap.String("remote", r.RemoteAddr))
	log.Debug("client connected")

	if err := s.send(c, newMeshMessage(s.Terrain())); err != nil {
		log.Warn("initial mesh send failed", zap.Error(err))
		return
	}

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		switch req.Type {
		case TypeRegenerate:
			t, err := s.Regenerate(req)
			if err != nil {
				log.Info("regenerate rejected", zap.Error(err))
				_ = s.send(c, &ErrorMessage{Type: TypeError, Error: err.Error()})
				continue
			}
			s.broadcast(newMeshMessage(t))
		default:
			_ = s.send(c, &ErrorMessage{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", req.Type)})
		}
	}
}

func (s *Server) handleTRN(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := s.Terrain().TRN().WriteTo(w); err != nil {
		s.log.Warn("writing mesh.trn failed", zap.Error(err))
	}
}

// handlePreview serves the color preview, or the height map with ?kind=height.
func (s *Server) handlePreview(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := s.Terrain()
		p := debug.NewPreview(s.preview.Width, s.preview.Height, format)

		if r.URL.Query().Get("kind") == "height" {
			w.Header().Set("Content-Type", p.ContentType())
			if err := p.Encode(w, debug.HeightImage(t.HeightField())); err != nil {
				s.log.Warn("encoding preview failed", zap.Error(err))
			}
			return
		}

		colorImg, err := debug.ColorImage(t.Buffers().Colors, t.Div())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", p.ContentType())
		if err := p.Encode(w, colorImg); err != nil {
			s.log.Warn("encoding preview failed", zap.Error(err))
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "ok div=%d\n", s.Terrain().Div())
}

func (s *Server) send(c *client, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return c.conn.WriteJSON(v)
}

func (s *Server) broadcast(v any) {
	s.clientsMu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.clientsMu.Unlock()

	for _, c := range targets {
		if err := s.send(c, v); err != nil {
			s.log.Debug("broadcast to client failed", zap.Error(err))
			s.removeClient(c)
		}
	}
}

func (s *Server) addClient(c *client) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.clientsMu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		c.conn.Close()
		delete(s.clients, c)
	}
}
