// Package session holds the client-side session and presence state machine.
// It consumes chat.Input values one at a time and records the side effects
// it wants in an outbox. It performs no I/O and must be driven by a single
// goroutine.
package session

import (
	"chat-stomp/domain/chat"
	"chat-stomp/domain/presence"
	"chat-stomp/errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	noticeConnected        = "Connected to WebSocket server"
	noticeDisconnected     = "Disconnected from server"
	noticeConnectionFailed = "Connection failed: "
)

const DefaultMaxContentLength = 1000

type Machine struct {
	state            chat.State
	pendingUsername  string
	session          *chat.Session
	online           *presence.OnlineUsers
	target           string
	closing          bool
	maxContentLength int
	now              func() time.Time
	outbox           []chat.Effect
}

type Option func(*Machine)

// WithMaxContentLength caps outbound content, in runes. Zero disables the cap.
func WithMaxContentLength(n int) Option {
	return func(m *Machine) { m.maxContentLength = n }
}

// WithOnlineUsers replaces the presence set, e.g. to use another collation locale.
func WithOnlineUsers(users *presence.OnlineUsers) Option {
	return func(m *Machine) { m.online = users }
}

// WithClock sets the time source used to stamp locally echoed lines.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		state:            chat.StateDisconnected,
		online:           presence.NewOnlineUsers(),
		maxContentLength: DefaultMaxContentLength,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle dispatches one input to the matching operation. Returned errors are
// validation or state errors; they have already been rendered as notices.
func (m *Machine) Handle(in chat.Input) error {
	switch evt := in.(type) {
	case chat.RequestConnect:
		return m.RequestConnect(evt.Username)
	case chat.RequestDisconnect:
		m.RequestDisconnect()
	case chat.SubmitMessage:
		return m.SubmitMessage(evt.Content)
	case chat.SelectUser:
		return m.SelectUser(evt.Username)
	case chat.ClearChat:
		m.ClearChat()
	case chat.Connected:
		m.OnConnected(evt.Subscriptions...)
	case chat.ConnectionFailed:
		m.OnConnectionError(evt.Err)
	case chat.Disconnected:
		m.OnDisconnected()
	case chat.BroadcastMessage:
		m.OnBroadcastReceived(evt)
	case chat.PrivateMessage:
		m.OnPrivateReceived(evt)
	case chat.Notification:
		m.OnNotificationReceived(evt)
	case chat.ErrorNotice:
		return m.OnErrorReceived(evt)
	case chat.HistoryReceived:
		m.OnHistoryReceived(evt.Messages)
	default:
		return fmt.Errorf("%w: unsupported input %T", errors.ErrInvalidPayload, in)
	}
	return nil
}

// FlushEffects returns the pending effects in emission order and empties the outbox.
func (m *Machine) FlushEffects() []chat.Effect {
	effects := m.outbox
	m.outbox = nil
	return effects
}

func (m *Machine) State() chat.State { return m.state }

func (m *Machine) Connected() bool { return m.state == chat.StateConnected }

// CurrentUsername is empty when no session exists.
func (m *Machine) CurrentUsername() string {
	if m.session == nil {
		return ""
	}
	return m.session.CurrentUsername
}

// SelectionTarget is empty in broadcast mode.
func (m *Machine) SelectionTarget() string { return m.target }

// OnlineUsers returns the rendered order of the presence set.
func (m *Machine) OnlineUsers() []string { return m.online.Ordered(m.CurrentUsername()) }

// RequestConnect validates the username and asks the transport to connect.
func (m *Machine) RequestConnect(username string) error {
	if m.state != chat.StateDisconnected {
		return m.reject(errors.ErrAlreadyConnected)
	}
	name, err := chat.ValidateUsername(username)
	if err != nil {
		return m.reject(err)
	}
	m.state = chat.StateConnecting
	m.pendingUsername = name
	m.emit(chat.OpenConnection{Username: name})
	return nil
}

// OnConnected opens the session. Self is always online from here on.
func (m *Machine) OnConnected(subscriptions ...string) {
	if m.state != chat.StateConnecting {
		return
	}
	m.state = chat.StateConnected
	m.session = &chat.Session{CurrentUsername: m.pendingUsername, Connected: true}
	m.pendingUsername = ""
	m.online.Add(m.session.CurrentUsername)

	m.emit(chat.ConnectionStatus{Connected: true, Username: m.session.CurrentUsername})
	m.emit(chat.SystemNotice{Text: noticeConnected})
	if len(subscriptions) > 0 {
		m.emit(chat.DebugInfo{Text: "Subscribed to: " + strings.Join(subscriptions, ", ")})
	}
	m.emitUserList()
	m.emit(chat.ModeIndicator{})
}

// OnConnectionError fails a pending connect or ends a live session.
func (m *Machine) OnConnectionError(err error) {
	if m.state == chat.StateDisconnected && m.session == nil {
		return
	}
	m.teardown()
	m.emit(chat.ConnectionStatus{Connected: false})
	m.emit(chat.SystemNotice{Text: noticeConnectionFailed + describe(err), IsError: true})
	m.emitUserList()
	m.emit(chat.ModeIndicator{})
}

// RequestDisconnect asks the transport to close. State is only reset once
// the transport confirms with OnDisconnected.
func (m *Machine) RequestDisconnect() {
	if m.state != chat.StateConnected || m.closing {
		return
	}
	m.closing = true
	m.emit(chat.CloseConnection{})
}

func (m *Machine) OnDisconnected() {
	if m.state == chat.StateDisconnected && m.session == nil {
		return
	}
	m.teardown()
	m.emit(chat.ConnectionStatus{Connected: false})
	m.emit(chat.SystemNotice{Text: noticeDisconnected})
	m.emitUserList()
	m.emit(chat.ModeIndicator{})
}

// SubmitMessage sends privately when a target other than self is selected,
// and broadcasts otherwise. Blank content is silently dropped.
func (m *Machine) SubmitMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if m.state != chat.StateConnected {
		return m.reject(errors.ErrNotConnected)
	}
	trimmed, err := chat.ValidateContent(content, m.maxContentLength)
	if err != nil {
		return m.reject(err)
	}

	self := m.CurrentUsername()
	if m.target != "" && m.target != self {
		m.emit(chat.SendPrivate{Username: self, Content: trimmed, TargetUsername: m.target})
		// The server does not echo private messages to their sender.
		m.emit(chat.ChatLine{Kind: chat.LineSentPrivate, Username: self, Target: m.target, Content: trimmed, At: m.now()})
		return nil
	}
	m.emit(chat.SendBroadcast{Username: self, Content: trimmed})
	return nil
}

func (m *Machine) OnBroadcastReceived(evt chat.BroadcastMessage) {
	if m.state != chat.StateConnected {
		return
	}
	m.emit(chat.ChatLine{Kind: chat.LineBroadcast, Username: evt.Username, Content: evt.Content, At: evt.Timestamp})
	// Senders may talk before their join notice reaches us.
	if evt.Username != chat.SystemSender && m.online.Add(evt.Username) {
		m.emitUserList()
	}
}

func (m *Machine) OnPrivateReceived(evt chat.PrivateMessage) {
	if m.state != chat.StateConnected {
		return
	}
	m.emit(chat.ChatLine{Kind: chat.LinePrivate, Username: evt.Username, Content: evt.Content, At: evt.Timestamp})
	m.emit(chat.DebugInfo{Text: "Private message received from " + evt.Username})
}

func (m *Machine) OnNotificationReceived(evt chat.Notification) {
	if m.state != chat.StateConnected {
		return
	}
	m.emit(chat.ChatLine{Kind: chat.LineNotification, Username: evt.Username, Content: evt.Content, At: evt.Timestamp})

	change, ok := presence.ParseNotification(evt.Content)
	if !ok {
		return
	}
	switch change.Kind {
	case presence.Joined:
		if m.online.Add(change.Username) {
			m.emitUserList()
		}
	case presence.Left:
		m.OnUserLeft(change.Username)
	}
}

// OnErrorReceived surfaces a server error and returns it wrapped in
// errors.ErrServer. The session stays up.
func (m *Machine) OnErrorReceived(evt chat.ErrorNotice) error {
	m.emit(chat.SystemNotice{Text: "Error: " + evt.Message, IsError: true})
	if evt.Code != "" {
		return fmt.Errorf("%w: %s: %s", errors.ErrServer, evt.Code, evt.Message)
	}
	return fmt.Errorf("%w: %s", errors.ErrServer, evt.Message)
}

// OnHistoryReceived replays recent broadcasts. History says nothing about who
// is online now, so presence is left alone.
func (m *Machine) OnHistoryReceived(messages []chat.BroadcastMessage) {
	if m.state != chat.StateConnected {
		return
	}
	for _, msg := range messages {
		m.emit(chat.ChatLine{Kind: chat.LineHistory, Username: msg.Username, Content: msg.Content, At: msg.Timestamp})
	}
}

// SelectUser picks a private target. Selecting self, or nobody, goes back
// to broadcast mode.
func (m *Machine) SelectUser(username string) error {
	if m.state != chat.StateConnected {
		return m.reject(errors.ErrNotConnected)
	}
	name := strings.TrimSpace(username)
	if name == m.CurrentUsername() {
		name = ""
	}
	m.target = name
	m.emit(chat.ModeIndicator{Target: m.target})
	m.emitUserList()
	return nil
}

// OnUserLeft removes a user. Self is never removed while connected.
func (m *Machine) OnUserLeft(username string) {
	if username == m.CurrentUsername() {
		return
	}
	removed := m.online.Remove(username)
	if m.target == username {
		m.target = ""
		m.emit(chat.ModeIndicator{})
	}
	if removed {
		m.emitUserList()
	}
}

func (m *Machine) ClearChat() {
	m.emit(chat.ChatCleared{})
}

func (m *Machine) teardown() {
	m.state = chat.StateDisconnected
	m.session = nil
	m.pendingUsername = ""
	m.target = ""
	m.closing = false
	m.online.Clear()
}

func (m *Machine) emit(e chat.Effect) {
	m.outbox = append(m.outbox, e)
}

func (m *Machine) emitUserList() {
	self := m.CurrentUsername()
	entries := lo.Map(m.online.Ordered(self), func(u string, _ int) chat.UserEntry {
		return chat.UserEntry{Username: u, Self: u == self, Selected: u == m.target}
	})
	m.emit(chat.UserList{Entries: entries})
}

func (m *Machine) reject(err error) error {
	m.emit(chat.SystemNotice{Text: describe(err), IsError: true})
	return err
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
