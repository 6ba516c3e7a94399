// Package tcp implements mcpcore's reference TCP transport (§4.6): a single
// accept loop over a fixed-size client slot array, length-prefix framing
// per connection, idle-timeout eviction, and cooperative cancellation.
package tcp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/brennhill/mcpcore/internal/bufpool"
	"github.com/brennhill/mcpcore/internal/transport"
	"github.com/brennhill/mcpcore/internal/util"
)

// Defaults mirror mcpcore §6's wire frame and §4.6's accept loop.
const (
	DefaultMaxMessageSize = 1 << 20 // 1 MiB
	DefaultSlotCount      = 10
	defaultPollInterval   = 500 * time.Millisecond
)

// Config configures a Server transport.
type Config struct {
	Addr            string
	MaxMessageSize  int           // 0 -> DefaultMaxMessageSize
	SlotCount       int           // 0 -> DefaultSlotCount
	IdleTimeout     time.Duration // 0 disables idle eviction (poll at defaultPollInterval)
	BufPool         *bufpool.Pool // nil -> heap fallback only
	Log             *logrus.Entry
}

// Server is the TCP reference transport (mcpcore §4.6). It satisfies
// transport.Transport.
type Server struct {
	cfg      Config
	log      *logrus.Entry
	listener net.Listener

	running atomic.Bool
	stopped atomic.Bool
	destroyed atomic.Bool

	slotsMu sync.Mutex
	slots   []*slot

	handler transport.Handler
	wg      sync.WaitGroup
}

type slot struct {
	active atomic.Bool
	conn   net.Conn
	cancel context.CancelFunc
}

var _ transport.Transport = (*Server)(nil)

// New constructs a Server bound to cfg. It does not listen until Start.
func New(cfg Config) *Server {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	if cfg.SlotCount <= 0 {
		cfg.SlotCount = DefaultSlotCount
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.New())
	}
	s := &Server{cfg: cfg, log: cfg.Log}
	s.slots = make([]*slot, cfg.SlotCount)
	for i := range s.slots {
		s.slots[i] = &slot{}
	}
	return s
}

// Start listens on cfg.Addr and begins the accept loop in a background
// goroutine. Returns once the listener is bound.
func (s *Server) Start(h transport.Handler) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("tcp transport: listen %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.handler = h
	s.running.Store(true)

	util.SafeGo(s.acceptLoop)
	return nil
}

// acceptLoop is the single accept thread (mcpcore §4.6). Go's net.Listener
// doesn't expose poll(2)/select(2) directly; Stop closing the listener
// plays the role of the reference design's self-pipe/listen-socket-close
// wakeup, unblocking Accept within the same bounded-time guarantee.
func (s *Server) acceptLoop() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.log.WithError(err).Warn("tcp transport: accept error")
			continue
		}
		if !s.claimSlot(conn) {
			s.log.Warn("tcp transport: no free client slot, rejecting connection")
			conn.Close()
		}
	}
}

// claimSlot scans the fixed slot array for a free entry and spawns a
// handler goroutine for it. Reports whether a slot was claimed.
func (s *Server) claimSlot(conn net.Conn) bool {
	s.slotsMu.Lock()
	var claimed *slot
	for _, sl := range s.slots {
		if sl.active.CompareAndSwap(false, true) {
			claimed = sl
			break
		}
	}
	s.slotsMu.Unlock()
	if claimed == nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	claimed.conn = conn
	claimed.cancel = cancel

	s.wg.Add(1)
	util.SafeGo(func() {
		defer s.wg.Done()
		defer func() {
			conn.Close()
			claimed.active.Store(false)
			claimed.conn = nil
			claimed.cancel = nil
		}()
		s.handleClient(ctx, conn)
	})
	return true
}

// handleClient implements the per-client handler loop of mcpcore §4.6.
func (s *Server) handleClient(ctx context.Context, conn net.Conn) {
	clientID := conn.RemoteAddr().String()
	connLog := s.log.WithFields(logrus.Fields{"client": clientID, "conn_id": uuid.NewString()})
	connLog.Debug("tcp transport: connection accepted")
	defer connLog.Debug("tcp transport: connection closed")
	lastActivity := time.Now()

	lengthBuf := make([]byte, 4)
	lengthRead := 0

	for {
		if ctx.Err() != nil {
			return
		}

		budget := s.cfg.IdleTimeout
		if budget <= 0 {
			budget = defaultPollInterval
		}
		conn.SetReadDeadline(time.Now().Add(minDuration(budget, defaultPollInterval)))

		if s.cfg.IdleTimeout > 0 && time.Since(lastActivity) >= s.cfg.IdleTimeout {
			s.log.WithField("client", clientID).Info("tcp transport: idle timeout, closing")
			return
		}

		if err := recvExact(ctx, conn, lengthBuf, &lengthRead); err != nil {
			if !errors.Is(err, errTimedOut) {
				if !errors.Is(err, io.EOF) {
					s.handler.OnError(ctx, clientID, err)
				}
				return
			}
			continue // read timed out mid-length-prefix; re-check stop/idle and resume
		}
		lengthRead = 0 // full prefix consumed, reset cursor for the next frame

		length := binary.BigEndian.Uint32(lengthBuf)
		if length == 0 || int(length) > s.cfg.MaxMessageSize {
			s.log.WithFields(logrus.Fields{"client": clientID, "length": length}).Warn("tcp transport: out-of-range frame length, closing")
			return
		}

		buf := s.acquireBuffer(int(length))
		payload := buf.Bytes()[:length]
		payloadRead := 0
		for {
			err := recvExact(ctx, conn, payload, &payloadRead)
			if err == nil {
				break
			}
			if errors.Is(err, errTimedOut) {
				conn.SetReadDeadline(time.Now().Add(minDuration(budget, defaultPollInterval)))
				if ctx.Err() != nil {
					s.releaseBuffer(buf)
					return
				}
				continue
			}
			s.releaseBuffer(buf)
			if !errors.Is(err, io.EOF) {
				s.handler.OnError(ctx, clientID, err)
			}
			return
		}

		resp, errCode := s.handler.OnMessage(ctx, clientID, payload)
		s.releaseBuffer(buf)

		lastActivity = time.Now()
		conn.SetReadDeadline(time.Time{})

		if resp == nil {
			if errCode != 0 {
				s.log.WithFields(logrus.Fields{"client": clientID, "error_code": errCode}).Warn("tcp transport: handler signalled error with no response")
			}
			continue
		}
		if len(resp) > s.cfg.MaxMessageSize {
			s.log.WithField("client", clientID).Warn("tcp transport: response exceeds max message size, dropping")
			continue
		}
		if err := s.sendFramed(ctx, conn, resp); err != nil {
			s.handler.OnError(ctx, clientID, err)
			return
		}
		lastActivity = time.Now()
	}
}

func (s *Server) acquireBuffer(length int) *bufpool.Buffer {
	if s.cfg.BufPool != nil && length+1 <= s.cfg.BufPool.BlockSize() {
		return s.cfg.BufPool.Acquire()
	}
	s.log.WithField("length", length).Warn("tcp transport: buffer falling back to heap")
	return bufpool.AcquireHeap(length)
}

func (s *Server) releaseBuffer(buf *bufpool.Buffer) {
	if s.cfg.BufPool != nil {
		s.cfg.BufPool.Release(buf)
	}
}

func (s *Server) sendFramed(ctx context.Context, conn net.Conn, payload []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	framed := append(header, payload...)
	return sendExact(ctx, conn, framed)
}

// Send implements transport.Transport. The TCP server keys clients by
// remote address, matching the clientID handed to Handler.OnMessage.
func (s *Server) Send(clientID string, msg []byte) error {
	s.slotsMu.Lock()
	defer s.slotsMu.Unlock()
	for _, sl := range s.slots {
		if sl.active.Load() && sl.conn != nil && sl.conn.RemoteAddr().String() == clientID {
			return s.sendFramed(context.Background(), sl.conn, msg)
		}
	}
	return fmt.Errorf("tcp transport: no active connection for client %q", clientID)
}

// Stop is idempotent: repeated calls after the first are no-ops. It flips
// the running flag and closes the listener, unblocking Accept, then closes
// every active per-client connection so blocked reads/writes return.
func (s *Server) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.running.Store(false)
	if s.listener != nil {
		s.listener.Close()
	}

	s.slotsMu.Lock()
	for _, sl := range s.slots {
		if sl.active.Load() && sl.cancel != nil {
			sl.cancel()
		}
		if sl.conn != nil {
			sl.conn.Close()
		}
	}
	s.slotsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Destroy releases all resources. Idempotent after Stop.
func (s *Server) Destroy() error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	return s.Stop()
}

// Addr returns the bound listener address. Valid only after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
