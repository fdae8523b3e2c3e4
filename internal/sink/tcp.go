// Package sink implements the audio and spectrum output transports:
// a framed TCP writer, a PSD CSV writer, an optional local PCM monitor,
// and DNS-SD service advertisement.
package sink

import (
	"fmt"
	"net"
	"sync"
)

// TCP is a framed-record sink over a single accepted connection. A
// write failure is terminal: callers must stop the session, matching
// the "no partial-frame recovery" rule for the audio path.
type TCP struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewTCP wraps an already-accepted connection.
func NewTCP(conn net.Conn) *TCP {
	return &TCP{conn: conn}
}

// ListenAndAcceptOne listens on addr and blocks for exactly one
// connection, matching the single-consumer model implied by the
// pipeline's one-sink-per-session design.
func ListenAndAcceptOne(addr string) (*TCP, net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("sink: listen %s: %w", addr, err)
	}
	conn, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, nil, fmt.Errorf("sink: accept on %s: %w", addr, err)
	}
	return NewTCP(conn), ln, nil
}

// Write performs write_all semantics: it either writes every byte of
// record or returns an error, never a partial write.
func (t *TCP) Write(record []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	written := 0
	for written < len(record) {
		n, err := t.conn.Write(record[written:])
		if err != nil {
			return fmt.Errorf("sink: tcp write: %w", err)
		}
		written += n
	}
	return nil
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Close()
}
