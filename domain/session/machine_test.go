package session

import (
	"chat-stomp/domain/chat"
	"chat-stomp/errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// connectedAs drives a fresh machine to Connected and drops the setup effects.
func connectedAs(t *testing.T, username string, opts ...Option) *Machine {
	t.Helper()
	m := NewMachine(opts...)
	require.NoError(t, m.RequestConnect(username))
	m.OnConnected()
	m.FlushEffects()
	return m
}

func effectsOf[T chat.Effect](effects []chat.Effect) []T {
	var out []T
	for _, e := range effects {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func notify(content string) chat.Notification {
	return chat.Notification{Username: chat.SystemSender, Content: content}
}

func TestMachine_Connect_Lifecycle(t *testing.T) {
	req := require.New(t)
	m := NewMachine()

	// Given a fresh machine
	req.Equal(chat.StateDisconnected, m.State())
	req.Empty(m.CurrentUsername())

	// When the user asks to connect
	req.NoError(m.RequestConnect("  alice "))

	// Then the transport is asked to open a connection with the trimmed name
	req.Equal(chat.StateConnecting, m.State())
	req.Equal([]chat.Effect{chat.OpenConnection{Username: "alice"}}, m.FlushEffects())
	req.Empty(m.CurrentUsername(), "no session until the transport confirms")

	// When the transport confirms
	m.OnConnected("/topic/messages", "/user/queue/private")

	// Then the session is open and self is online
	req.Equal(chat.StateConnected, m.State())
	req.True(m.Connected())
	req.Equal("alice", m.CurrentUsername())
	req.Equal([]string{"alice"}, m.OnlineUsers())

	effects := m.FlushEffects()
	req.Contains(effects, chat.ConnectionStatus{Connected: true, Username: "alice"})
	req.Contains(effects, chat.SystemNotice{Text: "Connected to WebSocket server"})
	req.Contains(effects, chat.DebugInfo{Text: "Subscribed to: /topic/messages, /user/queue/private"})
	req.Contains(effects, chat.UserList{Entries: []chat.UserEntry{{Username: "alice", Self: true}}})
	req.Contains(effects, chat.ModeIndicator{})
}

func TestMachine_RequestConnect_Rejections(t *testing.T) {
	t.Run("Blank username", func(t *testing.T) {
		req := require.New(t)
		m := NewMachine()

		err := m.RequestConnect("   ")

		req.ErrorIs(err, errors.ErrEmptyUsername)
		req.Equal(chat.StateDisconnected, m.State())
		req.Equal([]chat.Effect{chat.SystemNotice{Text: errors.ErrEmptyUsername.Error(), IsError: true}}, m.FlushEffects())
	})

	t.Run("Already connecting", func(t *testing.T) {
		req := require.New(t)
		m := NewMachine()
		req.NoError(m.RequestConnect("alice"))
		m.FlushEffects()

		err := m.RequestConnect("bob")

		req.ErrorIs(err, errors.ErrAlreadyConnected)
		req.Empty(effectsOf[chat.OpenConnection](m.FlushEffects()))
	})

	t.Run("Already connected", func(t *testing.T) {
		req := require.New(t)
		m := connectedAs(t, "alice")

		req.ErrorIs(m.RequestConnect("bob"), errors.ErrAlreadyConnected)
		req.Equal("alice", m.CurrentUsername())
	})
}

func TestMachine_OnConnected_IgnoredWhenNotConnecting(t *testing.T) {
	req := require.New(t)
	m := NewMachine()

	m.OnConnected()

	req.Equal(chat.StateDisconnected, m.State())
	req.Empty(m.FlushEffects())
}

func TestMachine_BroadcastFromUnknownSender_AddsPresence(t *testing.T) {
	req := require.New(t)

	// Given alice connects
	m := NewMachine()
	req.NoError(m.RequestConnect("alice"))
	m.OnConnected()
	m.FlushEffects()

	// When bob speaks without a prior join notice
	m.OnBroadcastReceived(chat.BroadcastMessage{Username: "bob", Content: "hi", Timestamp: time.UnixMilli(1000)})

	// Then bob is online and the line is rendered
	req.ElementsMatch([]string{"alice", "bob"}, m.OnlineUsers())
	lines := effectsOf[chat.ChatLine](m.FlushEffects())
	req.Len(lines, 1)
	req.Equal("bob: hi", lines[0].String())
	req.Equal(time.UnixMilli(1000), lines[0].At)
}

func TestMachine_BroadcastFromSystem_DoesNotAddPresence(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	m.OnBroadcastReceived(chat.BroadcastMessage{Username: chat.SystemSender, Content: "Server is shutting down..."})

	req.Equal([]string{"alice"}, m.OnlineUsers())
	req.Empty(effectsOf[chat.UserList](m.FlushEffects()))
}

func TestMachine_SubmitMessage_Private(t *testing.T) {
	req := require.New(t)

	// Given alice has selected bob
	sentAt := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)
	m := connectedAs(t, "alice", WithClock(func() time.Time { return sentAt }))
	m.OnNotificationReceived(notify("User 'bob' joined the chat"))
	req.NoError(m.SelectUser("bob"))
	m.FlushEffects()

	// When she submits a message
	req.NoError(m.SubmitMessage("secret"))

	// Then a private command is sent and echoed locally
	effects := m.FlushEffects()
	req.Len(effects, 2)
	req.Equal(chat.SendPrivate{Username: "alice", Content: "secret", TargetUsername: "bob"}, effects[0])
	line, ok := effects[1].(chat.ChatLine)
	req.True(ok)
	req.Equal("You → bob: secret", line.String())
	req.Equal(sentAt, line.At)
}

func TestMachine_SubmitMessage_Broadcast(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	req.NoError(m.SubmitMessage("  hello all "))

	req.Equal([]chat.Effect{chat.SendBroadcast{Username: "alice", Content: "hello all"}}, m.FlushEffects())
}

func TestMachine_SubmitMessage_Blank_NoCommand(t *testing.T) {
	for _, content := range []string{"", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", content), func(t *testing.T) {
			req := require.New(t)
			m := connectedAs(t, "alice")

			req.NoError(m.SubmitMessage(content))

			req.Empty(m.FlushEffects())
		})
	}
}

func TestMachine_SubmitMessage_TooLong(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice", WithMaxContentLength(5))

	err := m.SubmitMessage("123456")

	req.ErrorIs(err, errors.ErrContentTooLong)
	effects := m.FlushEffects()
	req.Empty(effectsOf[chat.OutboundCommand](effects))
	notices := effectsOf[chat.SystemNotice](effects)
	req.Len(notices, 1)
	req.True(notices[0].IsError)
}

func TestMachine_SubmitMessage_NotConnected(t *testing.T) {
	req := require.New(t)
	m := NewMachine()

	req.ErrorIs(m.SubmitMessage("hello"), errors.ErrNotConnected)
	req.Empty(effectsOf[chat.OutboundCommand](m.FlushEffects()))
}

func TestMachine_SelectUser(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")
	m.OnNotificationReceived(notify("User 'bob' joined the chat"))
	m.FlushEffects()

	// Selecting bob switches to private mode and marks him in the list
	req.NoError(m.SelectUser("bob"))
	req.Equal("bob", m.SelectionTarget())
	effects := m.FlushEffects()
	req.Contains(effects, chat.ModeIndicator{Target: "bob"})
	req.Contains(effects, chat.UserList{Entries: []chat.UserEntry{
		{Username: "alice", Self: true},
		{Username: "bob", Selected: true},
	}})

	// Selecting self always goes back to broadcast
	req.NoError(m.SelectUser("alice"))
	req.Empty(m.SelectionTarget())
	req.Contains(m.FlushEffects(), chat.ModeIndicator{})

	// So does selecting nobody
	req.NoError(m.SelectUser("bob"))
	req.NoError(m.SelectUser(""))
	req.Empty(m.SelectionTarget())
}

func TestMachine_SelectUser_NotConnected(t *testing.T) {
	req := require.New(t)
	m := NewMachine()

	req.ErrorIs(m.SelectUser("bob"), errors.ErrNotConnected)
	req.Empty(m.SelectionTarget())
}

func TestMachine_TargetLeaves_ClearsSelection(t *testing.T) {
	req := require.New(t)

	// Given alice is talking privately to carol
	m := connectedAs(t, "alice")
	m.OnNotificationReceived(notify("User 'carol' joined the chat"))
	req.NoError(m.SelectUser("carol"))
	m.FlushEffects()

	// When carol leaves
	m.OnNotificationReceived(notify("User 'carol' left the chat"))

	// Then the selection is cleared and carol is gone
	req.Empty(m.SelectionTarget())
	req.Equal([]string{"alice"}, m.OnlineUsers())
	effects := m.FlushEffects()
	req.Contains(effects, chat.ModeIndicator{})
	lines := effectsOf[chat.ChatLine](effects)
	req.Len(lines, 1)
	req.Equal("🔔 System: User 'carol' left the chat", lines[0].String())
}

func TestMachine_SelfLeaveNotification_KeepsSelf(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	m.OnNotificationReceived(notify("User 'alice' left the chat"))

	req.Equal([]string{"alice"}, m.OnlineUsers())
}

func TestMachine_UnrelatedNotification_OnlyRenders(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	m.OnNotificationReceived(notify("Welcome! You are now subscribed to notifications."))

	effects := m.FlushEffects()
	req.Len(effects, 1)
	req.IsType(chat.ChatLine{}, effects[0])
	req.Equal([]string{"alice"}, m.OnlineUsers())
}

func TestMachine_PrivateReceived(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	m.OnPrivateReceived(chat.PrivateMessage{Username: "carol", Content: "psst"})

	effects := m.FlushEffects()
	req.Len(effects, 2)
	req.Equal("carol (private): psst", effects[0].(chat.ChatLine).String())
	req.Equal(chat.DebugInfo{Text: "Private message received from carol"}, effects[1])
}

func TestMachine_ErrorReceived_KeepsSession(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	err := m.OnErrorReceived(chat.ErrorNotice{Code: "VALIDATION_ERROR", Message: "Message content cannot be empty"})

	req.ErrorIs(err, errors.ErrServer)
	req.Contains(err.Error(), "VALIDATION_ERROR")
	req.True(m.Connected())
	req.Equal([]chat.Effect{chat.SystemNotice{Text: "Error: Message content cannot be empty", IsError: true}}, m.FlushEffects())
}

func TestMachine_HistoryReceived(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	m.OnHistoryReceived([]chat.BroadcastMessage{
		{Username: "bob", Content: "earlier"},
		{Username: "dave", Content: "even earlier"},
	})

	lines := effectsOf[chat.ChatLine](m.FlushEffects())
	req.Len(lines, 2)
	req.Equal(chat.LineHistory, lines[0].Kind)
	req.Equal("bob: earlier", lines[0].String())
	req.Equal([]string{"alice"}, m.OnlineUsers(), "history does not imply presence")
}

func TestMachine_InboundIgnoredWhenDisconnected(t *testing.T) {
	req := require.New(t)
	m := NewMachine()

	m.OnBroadcastReceived(chat.BroadcastMessage{Username: "bob", Content: "hi"})
	m.OnPrivateReceived(chat.PrivateMessage{Username: "bob", Content: "hi"})
	m.OnNotificationReceived(notify("User 'bob' joined the chat"))
	m.OnHistoryReceived([]chat.BroadcastMessage{{Username: "bob", Content: "hi"}})

	req.Empty(m.FlushEffects())
	req.Empty(m.OnlineUsers())
}

func TestMachine_Disconnect_ResetsEverything(t *testing.T) {
	req := require.New(t)

	// Given a busy session
	m := connectedAs(t, "alice")
	m.OnNotificationReceived(notify("User 'bob' joined the chat"))
	req.NoError(m.SelectUser("bob"))
	m.FlushEffects()

	// When the user disconnects
	m.RequestDisconnect()
	req.Equal([]chat.Effect{chat.CloseConnection{}}, m.FlushEffects())

	// A second request while closing is a no-op
	m.RequestDisconnect()
	req.Empty(m.FlushEffects())

	// Then the transport confirmation resets all state
	m.OnDisconnected()
	req.Equal(chat.StateDisconnected, m.State())
	req.Empty(m.CurrentUsername())
	req.Empty(m.OnlineUsers())
	req.Empty(m.SelectionTarget())

	effects := m.FlushEffects()
	req.Contains(effects, chat.ConnectionStatus{Connected: false})
	req.Contains(effects, chat.SystemNotice{Text: "Disconnected from server"})
	req.Contains(effects, chat.UserList{Entries: []chat.UserEntry{}})
	req.Contains(effects, chat.ModeIndicator{})

	// And a new session can start
	req.NoError(m.RequestConnect("bob"))
}

func TestMachine_RequestDisconnect_WhenDisconnected_NoOp(t *testing.T) {
	req := require.New(t)
	m := NewMachine()

	m.RequestDisconnect()
	m.OnDisconnected()

	req.Empty(m.FlushEffects())
}

func TestMachine_ConnectionError(t *testing.T) {
	t.Run("While connecting", func(t *testing.T) {
		req := require.New(t)
		m := NewMachine()
		req.NoError(m.RequestConnect("alice"))
		m.FlushEffects()

		m.OnConnectionError(fmt.Errorf("dial tcp: connection refused"))

		req.Equal(chat.StateDisconnected, m.State())
		req.Contains(m.FlushEffects(), chat.SystemNotice{Text: "Connection failed: dial tcp: connection refused", IsError: true})
	})

	t.Run("While connected", func(t *testing.T) {
		req := require.New(t)
		m := connectedAs(t, "alice")
		m.OnNotificationReceived(notify("User 'bob' joined the chat"))
		req.NoError(m.SelectUser("bob"))

		m.OnConnectionError(errors.ErrConnectionLost)

		req.Equal(chat.StateDisconnected, m.State())
		req.Empty(m.OnlineUsers())
		req.Empty(m.SelectionTarget())
		req.Empty(m.CurrentUsername())
	})

	t.Run("While disconnected", func(t *testing.T) {
		req := require.New(t)
		m := NewMachine()

		m.OnConnectionError(errors.ErrConnectionLost)

		req.Empty(m.FlushEffects())
	})
}

func TestMachine_ClearChat(t *testing.T) {
	req := require.New(t)
	m := connectedAs(t, "alice")

	m.ClearChat()

	req.Equal([]chat.Effect{chat.ChatCleared{}}, m.FlushEffects())
	req.True(m.Connected())
}

func TestMachine_Handle_Dispatch(t *testing.T) {
	req := require.New(t)
	m := NewMachine()

	req.NoError(m.Handle(chat.RequestConnect{Username: "alice"}))
	req.NoError(m.Handle(chat.Connected{}))
	req.NoError(m.Handle(chat.BroadcastMessage{Username: "bob", Content: "hi"}))
	req.NoError(m.Handle(chat.SelectUser{Username: "bob"}))
	req.NoError(m.Handle(chat.SubmitMessage{Content: "secret"}))

	commands := effectsOf[chat.OutboundCommand](m.FlushEffects())
	req.Equal([]chat.OutboundCommand{chat.SendPrivate{Username: "alice", Content: "secret", TargetUsername: "bob"}}, commands)

	req.ErrorIs(m.Handle(chat.ErrorNotice{Message: "Target user not found"}), errors.ErrServer)
	req.True(m.Connected())

	req.NoError(m.Handle(chat.RequestDisconnect{}))
	req.NoError(m.Handle(chat.Disconnected{}))
	req.Equal(chat.StateDisconnected, m.State())

	req.ErrorIs(m.Handle(chat.SubmitMessage{Content: "late"}), errors.ErrNotConnected)
}

// Replaying any join/leave sequence leaves exactly the users whose last
// event was a join, plus self.
func TestMachine_PresenceReplay(t *testing.T) {
	names := []string{"bob", "carol", "dave", "erin"}
	rnd := rand.New(rand.NewSource(42))

	for round := range 50 {
		t.Run(fmt.Sprintf("round %d", round), func(t *testing.T) {
			req := require.New(t)
			m := connectedAs(t, "alice")
			expected := map[string]bool{"alice": true}

			for range 30 {
				name := names[rnd.Intn(len(names))]
				if rnd.Intn(2) == 0 {
					m.OnNotificationReceived(notify(fmt.Sprintf("User '%s' joined the chat", name)))
					expected[name] = true
				} else {
					m.OnNotificationReceived(notify(fmt.Sprintf("User '%s' left the chat", name)))
					delete(expected, name)
				}
				req.Equal("alice", m.OnlineUsers()[0], "self is always first")
			}

			var want []string
			for name := range expected {
				want = append(want, name)
			}
			req.ElementsMatch(want, m.OnlineUsers())
			req.True(strings.HasPrefix(strings.Join(m.OnlineUsers(), ","), "alice"))
		})
	}
}
