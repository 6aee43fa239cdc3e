package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/catsvsdogs/results/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxInboundFrame = 4096
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	broadcaster    *Broadcaster
	frontend       http.Handler
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	statusHook     func() interface{}
}

func NewServer(broadcaster *Broadcaster, frontend http.Handler, allowedOrigins []string) *Server {
	s := &Server{
		broadcaster:    broadcaster,
		frontend:       frontend,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetStatusHook configures the payload served by /api/status.
// Must be called before SetupRoutes.
func (s *Server) SetStatusHook(fn func() interface{}) {
	s.statusHook = fn
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	if s.frontend != nil {
		mux.Handle("/", s.frontend)
	}
}

// Handler wraps mux with the headers every response carries.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return cors(securityHeaders(mux))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade error", "error", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		slog.Warn("ws client rejected", "remote", r.RemoteAddr, "error", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	slog.Info("WebSocket client connected", "remote", r.RemoteAddr)

	go s.readPump(c, r.RemoteAddr)
}

// readPump consumes viewer frames until the connection drops.
func (s *Server) readPump(c *client, remote string) {
	defer func() {
		s.broadcaster.RemoveClient(c)
		slog.Info("WebSocket client disconnected", "remote", remote)
	}()

	conn := c.conn
	conn.SetReadLimit(maxInboundFrame)
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		if !c.limiter.Allow() {
			metrics.ViewerFramesDropped.Inc()
			continue
		}
		s.handleFrame(c, data)
	}
}

func (s *Server) handleFrame(c *client, data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Debug("ignoring malformed viewer frame", "error", err)
		return
	}

	switch frame.Event {
	case EventSubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.Channel == "" {
			slog.Debug("ignoring subscribe without channel")
			return
		}
		s.broadcaster.Subscribe(c, p.Channel)
		slog.Debug("viewer joined group", "channel", p.Channel)
	default:
		slog.Debug("ignoring viewer frame", "event", frame.Event)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"viewers": s.broadcaster.ClientCount(),
	}
	if s.statusHook != nil {
		status["poll"] = s.statusHook()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}

	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss: http:")
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
		h.Set("Access-Control-Allow-Methods", "PUT, GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves handler on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
