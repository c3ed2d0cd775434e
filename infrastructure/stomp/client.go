// Package stomp carries the chat session over STOMP 1.2, usually on a WebSocket.
package stomp

import (
	"chat-stomp/contract"
	"chat-stomp/domain/chat"
	"chat-stomp/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	gostomp "github.com/go-stomp/stomp/v3"
	"github.com/google/uuid"
)

const (
	contentTypeJSON   = "application/json"
	disconnectTimeout = 2 * time.Second
)

// Destinations are the broker paths used by the chat server.
type Destinations struct {
	Broadcast     string
	Notifications string
	Private       string
	Errors        string
	History       string
	SendBroadcast string
	SendPrivate   string
}

func DefaultDestinations() Destinations {
	return Destinations{
		Broadcast:     "/topic/messages",
		Notifications: "/topic/notifications",
		Private:       "/user/queue/private",
		Errors:        "/user/queue/errors",
		History:       "/app/history",
		SendBroadcast: "/app/chat.send",
		SendPrivate:   "/app/chat.private",
	}
}

type Options struct {
	Host         string
	HeartBeat    time.Duration
	AccessToken  string
	FetchHistory bool
	Trace        bool
	Destinations Destinations
}

// Client implements contract.Transport. At most one connection is live at
// a time; its outcome is always reported through the inbox given to Connect.
type Client struct {
	log  *slog.Logger
	dial Dialer
	opts Options

	mu      sync.Mutex
	current *connection
}

type connection struct {
	id       uuid.UUID
	username string
	inbox    contract.Inbox
	log      *slog.Logger

	mu   sync.Mutex
	conn *gostomp.Conn

	closing  atomic.Bool
	stop     chan struct{}
	reported sync.Once
	pumps    sync.WaitGroup
}

type subscription struct {
	destination string
	decode      decoder
	sub         *gostomp.Subscription
}

func NewClient(log *slog.Logger, dial Dialer, opts Options) *Client {
	if opts.Destinations == (Destinations{}) {
		opts.Destinations = DefaultDestinations()
	}
	return &Client{log: log, dial: dial, opts: opts}
}

// Connect starts the handshake in the background and returns immediately.
func (c *Client) Connect(ctx context.Context, username string, inbox contract.Inbox) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return errors.ErrAlreadyConnected
	}

	id := uuid.New()
	cn := &connection{
		id:       id,
		username: username,
		inbox:    inbox,
		log:      c.log.With("connection", id.String(), "username", username),
		stop:     make(chan struct{}),
	}
	c.current = cn
	go c.open(ctx, cn)
	return nil
}

func (c *Client) Send(ctx context.Context, cmd chat.OutboundCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn := c.liveConn()
	if conn == nil {
		return errors.ErrNotConnected
	}
	destination, body, err := encodeCommand(c.opts.Destinations, cmd)
	if err != nil {
		return err
	}
	if err := conn.Send(destination, contentTypeJSON, body); err != nil {
		return fmt.Errorf("sending to %s: %w", destination, err)
	}
	return nil
}

// Disconnect closes the live connection in the background and posts
// chat.Disconnected once it is gone.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	cn := c.current
	c.mu.Unlock()
	if cn == nil {
		return errors.ErrNotConnected
	}
	if !cn.closing.CompareAndSwap(false, true) {
		return nil
	}
	go c.shutdown(ctx, cn)
	return nil
}

func (c *Client) open(ctx context.Context, cn *connection) {
	rwc, err := c.dial(ctx)
	if err != nil {
		c.fail(ctx, cn, err)
		return
	}
	if c.opts.Trace {
		rwc = newTracedConn(rwc, cn.log)
	}

	conn, err := gostomp.Connect(rwc, c.connectOptions(cn.username)...)
	if err != nil {
		_ = rwc.Close()
		c.fail(ctx, cn, fmt.Errorf("stomp handshake: %w", err))
		return
	}
	cn.mu.Lock()
	cn.conn = conn
	cn.mu.Unlock()

	if cn.closing.Load() {
		// Disconnect raced the handshake and already reported.
		_ = conn.MustDisconnect()
		return
	}

	subs, err := c.subscribe(conn)
	if err != nil {
		_ = conn.MustDisconnect()
		c.fail(ctx, cn, err)
		return
	}

	destinations := make([]string, 0, len(subs))
	for _, s := range subs {
		destinations = append(destinations, s.destination)
	}
	// Pumps are registered before Connected is posted, so a Disconnect that
	// follows it always waits for them. They only read once start is closed,
	// so no inbound event can precede Connected.
	start := make(chan struct{})
	cn.pumps.Add(len(subs))
	for _, s := range subs {
		go c.pump(ctx, cn, s, start)
	}
	defer close(start)

	cn.log.Info("Connected", "server", conn.Server(), "version", string(conn.Version()))
	if err := cn.inbox.Post(ctx, chat.Connected{Subscriptions: destinations}); err != nil {
		cn.closing.Store(true)
		_ = conn.MustDisconnect()
		c.release(cn)
	}
}

func (c *Client) connectOptions(username string) []func(*gostomp.Conn) error {
	opts := []func(*gostomp.Conn) error{
		gostomp.ConnOpt.Host(c.opts.Host),
		gostomp.ConnOpt.HeartBeat(c.opts.HeartBeat, c.opts.HeartBeat),
		gostomp.ConnOpt.Header("username", username),
	}
	if c.opts.AccessToken != "" {
		opts = append(opts, gostomp.ConnOpt.Header("Authorization", "Bearer "+c.opts.AccessToken))
	}
	return opts
}

func (c *Client) subscribe(conn *gostomp.Conn) ([]subscription, error) {
	d := c.opts.Destinations
	wanted := []subscription{
		{destination: d.Broadcast, decode: decodeBroadcast},
		{destination: d.Private, decode: decodePrivate},
		{destination: d.Notifications, decode: decodeNotification},
		{destination: d.Errors, decode: decodeError},
	}
	if c.opts.FetchHistory {
		wanted = append(wanted, subscription{destination: d.History, decode: decodeHistory})
	}

	for i := range wanted {
		sub, err := conn.Subscribe(wanted[i].destination, gostomp.AckAuto)
		if err != nil {
			return nil, fmt.Errorf("subscribing to %s: %w", wanted[i].destination, err)
		}
		wanted[i].sub = sub
	}
	return wanted, nil
}

func (c *Client) pump(ctx context.Context, cn *connection, s subscription, start <-chan struct{}) {
	defer cn.pumps.Done()
	select {
	case <-start:
	case <-cn.stop:
		return
	case <-ctx.Done():
		return
	}
	for {
		select {
		case msg, ok := <-s.sub.C:
			if !ok {
				c.fail(ctx, cn, errors.ErrConnectionLost)
				return
			}
			if msg.Err != nil {
				c.fail(ctx, cn, fmt.Errorf("%w: %v", errors.ErrConnectionLost, msg.Err))
				return
			}
			in, err := s.decode(msg.Body)
			if err != nil {
				cn.log.Warn("Dropping undecodable payload", "destination", s.destination, "error", err)
				continue
			}
			if err := cn.inbox.Post(ctx, in); err != nil {
				return
			}
		case <-cn.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) shutdown(ctx context.Context, cn *connection) {
	if conn := cn.stompConn(); conn != nil {
		done := make(chan error, 1)
		go func() { done <- conn.Disconnect() }()
		select {
		case err := <-done:
			if err != nil {
				cn.log.Debug("Graceful disconnect failed", "error", err)
				_ = conn.MustDisconnect()
			}
		case <-time.After(disconnectTimeout):
			cn.log.Warn("Server did not acknowledge disconnect in time")
			_ = conn.MustDisconnect()
		}
	}
	close(cn.stop)
	cn.pumps.Wait()

	c.release(cn)
	cn.log.Info("Disconnected")
	if err := cn.inbox.Post(ctx, chat.Disconnected{}); err != nil {
		cn.log.Debug("Disconnected not posted", "error", err)
	}
}

// fail reports a broken connection once. Failures after a requested
// disconnect are expected and stay silent.
func (c *Client) fail(ctx context.Context, cn *connection, err error) {
	cn.reported.Do(func() {
		if cn.closing.Load() {
			return
		}
		cn.log.Warn("Connection failed", "error", err)
		if conn := cn.stompConn(); conn != nil {
			_ = conn.MustDisconnect()
		}
		c.release(cn)
		if postErr := cn.inbox.Post(ctx, chat.ConnectionFailed{Err: err}); postErr != nil {
			cn.log.Debug("ConnectionFailed not posted", "error", postErr)
		}
	})
}

func (c *Client) release(cn *connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == cn {
		c.current = nil
	}
}

func (c *Client) liveConn() *gostomp.Conn {
	c.mu.Lock()
	cn := c.current
	c.mu.Unlock()
	if cn == nil || cn.closing.Load() {
		return nil
	}
	return cn.stompConn()
}

func (cn *connection) stompConn() *gostomp.Conn {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	return cn.conn
}
