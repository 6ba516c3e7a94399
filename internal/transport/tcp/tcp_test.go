package tcp

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

type echoHandler struct {
	errs chan error
}

func (h *echoHandler) OnMessage(ctx context.Context, clientID string, msg []byte) ([]byte, int) {
	out := make([]byte, len(msg))
	copy(out, msg)
	return out, 0
}

func (h *echoHandler) OnError(ctx context.Context, clientID string, err error) {
	select {
	case h.errs <- err:
	default:
	}
}

func dialAndExchange(t *testing.T, addr string, payload []byte) []byte {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := conn.Write(append(header, payload...)); err != nil {
		t.Fatalf("write: %v", err)
	}

	respHeader := make([]byte, 4)
	if _, err := conn.Read(respHeader); err != nil {
		t.Fatalf("read header: %v", err)
	}
	n := binary.BigEndian.Uint32(respHeader)
	body := make([]byte, n)
	got := 0
	for got < int(n) {
		m, err := conn.Read(body[got:])
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		got += m
	}
	return body
}

func TestEchoRoundTrip(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	h := &echoHandler{errs: make(chan error, 4)}
	if err := s.Start(h); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Destroy()

	addr := s.Addr().String()
	got := dialAndExchange(t, addr, []byte("hello"))
	if string(got) != "hello" {
		t.Fatalf("expected echo, got %q", got)
	}
}

func TestOutOfRangeLengthCloses(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", MaxMessageSize: 16})
	h := &echoHandler{errs: make(chan error, 4)}
	if err := s.Start(h); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Destroy()

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, 1000) // exceeds MaxMessageSize
	conn.Write(header)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatalf("expected connection to be closed for an out-of-range frame length")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	h := &echoHandler{errs: make(chan error, 4)}
	if err := s.Start(h); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop should be a no-op, got: %v", err)
	}
}
