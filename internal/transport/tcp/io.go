package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// errTimedOut distinguishes a read-deadline expiry (used to re-check the
// stop/idle flags between waits, per mcpcore §4.6 step 1) from a genuine
// I/O error.
var errTimedOut = errors.New("tcp transport: read deadline exceeded")

// recvExact reads exactly len(buf) bytes, looping over partial reads and
// checking ctx between iterations (mcpcore §4.6 recv_exact). Socket-closed
// conditions (EPIPE/ECONNRESET and friends) surface as io.EOF so callers
// can distinguish "closed" from "error" per mcpcore §4.6. read is an
// explicit progress cursor: on an errTimedOut return the caller can re-arm
// the deadline and call recvExact again with the same buf/read to resume
// exactly where the stream left off, instead of losing already-consumed
// socket bytes to a fresh read attempt.
func recvExact(ctx context.Context, conn net.Conn, buf []byte, read *int) error {
	for *read < len(buf) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := conn.Read(buf[*read:])
		*read += n
		if err != nil {
			return classifyIOError(err)
		}
	}
	return nil
}

// sendExact writes all of payload, looping over partial writes and checking
// ctx between iterations (mcpcore §4.6 send_exact).
func sendExact(ctx context.Context, conn net.Conn, payload []byte) error {
	written := 0
	for written < len(payload) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := conn.Write(payload[written:])
		written += n
		if err != nil {
			if errors.Is(classifyIOError(err), errTimedOut) {
				continue // a write deadline isn't set by this transport; defensive only
			}
			return classifyIOError(err)
		}
	}
	return nil
}

// classifyIOError maps a read/write timeout to errTimedOut (the reference
// design's "interrupted by stop-signal" polling interval) and maps closed-
// peer conditions (EPIPE, ECONNRESET, and their Windows equivalents) to
// io.EOF rather than a generic error, per mcpcore §4.6.
func classifyIOError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errTimedOut
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return io.EOF
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return io.EOF
	}
	return err
}
