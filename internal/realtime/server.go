// Package realtime – Server
//
// This file is the gorilla/websocket transport: upgrade, origin checks, read
// and write pumps, keepalive pings and size limits.
package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tbourn/wolfoman-studio/internal/config"
	"github.com/tbourn/wolfoman-studio/internal/http/middleware"
)

// Server upgrades HTTP requests to WebSocket connections and pumps frames
// between each connection and the hub.
type Server struct {
	hub      *Hub
	handler  *Handler
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
}

// NewServer builds a Server. Zero values in cfg fall back to a 64-frame
// send buffer, a 10s write timeout, a 60s pong timeout and a 64 KiB frame
// limit. Upgrades are accepted from any origin when
// allowedOrigins is empty, otherwise only from the listed origins and from
// clients that send no Origin header.
func NewServer(hub *Hub, handler *Handler, cfg config.RealtimeConfig, allowedOrigins []string) *Server {
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 64 << 10
	}
	return &Server{
		hub:     hub,
		handler: handler,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker builds the upgrader's CheckOrigin from the CORS allow list.
// An empty list or "*" admits every origin. Origins are compared as
// lower-cased scheme://host without a trailing slash.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// Handle is the gin handler for the WebSocket route. It blocks until the
// connection closes.
//
// Lifecycle:
//  1. Upgrade (the upgrader answers 400/403 itself on failure)
//  2. Register a Client with the hub and start the writer goroutine
//  3. Read frames on this goroutine and hand each to Handler.Dispatch
//  4. On read error or close, unregister; the writer then sends a close
//     frame and closes the socket
//
// Frame handling runs on a context detached from the request so that
// http.Server shutdown does not cancel store writes mid-frame.
func (s *Server) Handle(c *gin.Context) {
	lg := middleware.LoggerFrom(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		lg.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(s.cfg.SendBuffer)
	s.hub.Register(client)
	logger := lg.With().Str("conn_id", client.ID()).Logger()
	logger.Debug().Msg("websocket connected")

	go s.writePump(conn, client, logger)
	s.readPump(context.WithoutCancel(c.Request.Context()), conn, client, logger)
	logger.Debug().Msg("websocket closed")
}

// readPump reads frames until the peer goes away, the pong deadline passes
// or a frame exceeds the size limit. Dispatch errors are logged with the
// session's room and user and never end the loop.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, client *Client, logger zerolog.Logger) {
	defer s.hub.Unregister(client)

	conn.SetReadLimit(s.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				logger.Warn().Int64("limit", s.cfg.MaxMessageBytes).Msg("websocket frame too large")
			case !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived):
				logger.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		// A frame counts as activity even without a pong.
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))

		if err := s.handler.Dispatch(ctx, client, frame); err != nil {
			sess := client.Session()
			l := logger.With().Str("room", sess.Room).Logger()
			if sess.UserID != nil {
				l = l.With().Int64("user_id", *sess.UserID).Logger()
			}
			logDispatchError(l, eventType(frame), err)
		}
	}
}

// writePump is the only writer on conn. It drains the client's queue,
// pings at 90% of the pong timeout and exits when the client is closed or a
// write fails.
func (s *Server) writePump(conn *websocket.Conn, client *Client, logger zerolog.Logger) {
	ping := time.NewTicker(s.cfg.PongTimeout * 9 / 10)
	defer func() {
		ping.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-client.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.cfg.WriteTimeout))
			return
		case frame := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug().Err(err).Msg("websocket write failed")
				s.hub.Unregister(client)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.Unregister(client)
				return
			}
		}
	}
}
