package stomp

import (
	"io"
	"log/slog"
	"strings"
)

// frameLogWriter is an io.Writer that forwards raw STOMP traffic to the
// logger at DEBUG level. Each entry carries the connection ID and the
// direction so interleaved frames stay readable.
type frameLogWriter struct {
	logger    *slog.Logger
	direction string
}

// Write implements the io.Writer interface. NUL terminators and heart-beat
// newlines are made visible.
func (w *frameLogWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	msg := strings.NewReplacer("\x00", "^@", "\r\n", "↵", "\n", "↵").Replace(string(p))
	w.logger.Debug(w.direction+" "+msg, "bytes", len(p))

	return len(p), nil
}

// tracedConn tees both directions of a STOMP stream into frame log writers.
type tracedConn struct {
	rwc      io.ReadWriteCloser
	received io.Writer
	sent     io.Writer
}

func newTracedConn(rwc io.ReadWriteCloser, logger *slog.Logger) *tracedConn {
	return &tracedConn{
		rwc:      rwc,
		received: &frameLogWriter{logger: logger, direction: "<<<"},
		sent:     &frameLogWriter{logger: logger, direction: ">>>"},
	}
}

func (t *tracedConn) Read(p []byte) (int, error) {
	n, err := t.rwc.Read(p)
	if n > 0 {
		_, _ = t.received.Write(p[:n])
	}
	return n, err
}

func (t *tracedConn) Write(p []byte) (int, error) {
	n, err := t.rwc.Write(p)
	if n > 0 {
		_, _ = t.sent.Write(p[:n])
	}
	return n, err
}

func (t *tracedConn) Close() error {
	return t.rwc.Close()
}
