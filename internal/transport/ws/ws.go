// Package ws implements mcpcore's WebSocket transport, satisfying the same
// transport.Transport contract as the TCP reference transport (§4.5) but
// riding on an HTTP upgrade instead of raw framing — gorilla/websocket
// already handles message boundaries, so no length-prefix layer is needed
// here.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/brennhill/mcpcore/internal/transport"
	"github.com/brennhill/mcpcore/internal/util"
)

// Config configures a WebSocket transport.
type Config struct {
	Addr string
	Path string // default "/ws"
	Log  *logrus.Entry
}

// Server is a WebSocket transport. Each upgraded connection is a client
// keyed by its remote address, mirroring the TCP transport's client ID
// scheme so dispatcher-side code doesn't need a transport-specific notion
// of identity.
type Server struct {
	cfg      Config
	log      *logrus.Entry
	upgrader websocket.Upgrader
	httpSrv  *http.Server

	clientsMu sync.Mutex
	clients   map[string]*websocket.Conn

	handler   transport.Handler
	stopped   atomic.Bool
	destroyed atomic.Bool
}

var _ transport.Transport = (*Server)(nil)

// New constructs a WebSocket Server transport.
func New(cfg Config) *Server {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.New())
	}
	return &Server{
		cfg:     cfg,
		log:     cfg.Log,
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// mcpcore is a local/dev-tooling server exposed behind whatever
			// reverse proxy the deployment fronts it with; origin checking
			// is the deployment's job, not the transport's.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start registers the upgrade handler and begins listening.
func (s *Server) Start(h transport.Handler) error {
	s.handler = h
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleUpgrade)
	s.httpSrv = &http.Server{Addr: s.cfg.Addr, Handler: mux}

	ln, err := listen(s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("ws transport: listen %s: %w", s.cfg.Addr, err)
	}
	util.SafeGo(func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Warn("ws transport: serve error")
		}
	})
	return nil
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("ws transport: upgrade failed")
		return
	}
	clientID := r.RemoteAddr
	connLog := s.log.WithFields(logrus.Fields{"client": clientID, "conn_id": uuid.NewString()})
	connLog.Debug("ws transport: connection upgraded")

	s.clientsMu.Lock()
	s.clients[clientID] = conn
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, clientID)
		s.clientsMu.Unlock()
		conn.Close()
		connLog.Debug("ws transport: connection closed")
	}()

	ctx := context.Background()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.handler.OnError(ctx, clientID, err)
			}
			return
		}
		resp, errCode := s.handler.OnMessage(ctx, clientID, msg)
		if resp == nil {
			if errCode != 0 {
				s.log.WithFields(logrus.Fields{"client": clientID, "error_code": errCode}).Warn("ws transport: handler signalled error with no response")
			}
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			s.handler.OnError(ctx, clientID, err)
			return
		}
	}
}

// Send writes msg to clientID's connection.
func (s *Server) Send(clientID string, msg []byte) error {
	s.clientsMu.Lock()
	conn, ok := s.clients[clientID]
	s.clientsMu.Unlock()
	if !ok {
		return fmt.Errorf("ws transport: no active connection for client %q", clientID)
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// Stop closes the HTTP server and every active connection, unblocking any
// goroutine parked in ReadMessage.
func (s *Server) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.clientsMu.Lock()
	for id, conn := range s.clients {
		conn.Close()
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()

	if s.httpSrv != nil {
		return s.httpSrv.Close()
	}
	return nil
}

// Destroy is idempotent after Stop.
func (s *Server) Destroy() error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	return s.Stop()
}
