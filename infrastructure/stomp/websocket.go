package stomp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Dialer opens the byte stream the STOMP frames travel on.
type Dialer func(ctx context.Context) (io.ReadWriteCloser, error)

var stompSubprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// WebSocketDialer dials a STOMP-over-WebSocket endpoint such as the raw
// WebSocket path of a SockJS server (".../ws/websocket").
func WebSocketDialer(url string, handshakeTimeout time.Duration, header http.Header) Dialer {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Subprotocols:     stompSubprotocols,
		Proxy:            http.ProxyFromEnvironment,
	}
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		ws, resp, err := dialer.DialContext(ctx, url, header)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("websocket handshake with %s failed (%s): %w", url, resp.Status, err)
			}
			return nil, fmt.Errorf("websocket dial %s: %w", url, err)
		}
		return newWSConn(ws), nil
	}
}

// wsConn exposes a WebSocket as a byte stream. Reads concatenate incoming
// messages. Writes are buffered until a complete STOMP frame (NUL
// terminated) or a heart-beat is available, so each WebSocket message
// carries exactly one frame as STOMP-over-WebSocket servers expect.
type wsConn struct {
	ws     *websocket.Conn
	reader io.Reader

	wmu     sync.Mutex
	pending bytes.Buffer

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.pending.Write(p)
	buffered := c.pending.Bytes()
	if !frameComplete(buffered) {
		return len(p), nil
	}
	err := c.ws.WriteMessage(websocket.TextMessage, buffered)
	c.pending.Reset()
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.wmu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.wmu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// frameComplete reports whether b ends a STOMP frame or is only heart-beat EOLs.
func frameComplete(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	if b[len(b)-1] == 0 {
		return true
	}
	return len(bytes.Trim(b, "\r\n")) == 0
}
