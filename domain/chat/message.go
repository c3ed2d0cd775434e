// Package chat contains the value types exchanged between the chat session,
// its transport and its renderers.
// Values here are immutable and carry no behaviour beyond small accessors.
package chat

import "time"

// SystemSender is the username the server uses for generated notifications.
const SystemSender = "System"

// InboundEvent is any event the server pushes to the client.
// Events are consumed once by the session and never stored by it.
type InboundEvent interface {
	Input
	inbound()
}

// BroadcastMessage is a chat message delivered to every connected client.
type BroadcastMessage struct {
	Username  string
	Content   string
	Timestamp time.Time
}

// PrivateMessage is delivered on the recipient's private channel only.
type PrivateMessage struct {
	Username  string
	Content   string
	Timestamp time.Time
}

// Notification is a system-generated informational event (join, leave, welcome...).
type Notification struct {
	Username  string
	Content   string
	Timestamp time.Time
}

// ErrorNotice is an explicit error event sent by the server to this client.
type ErrorNotice struct {
	Code    string
	Message string
}

// HistoryReceived carries recent broadcast messages replayed by the server
// right after subscription.
type HistoryReceived struct {
	Messages []BroadcastMessage
}

func (BroadcastMessage) inbound() {}
func (PrivateMessage) inbound()   {}
func (Notification) inbound()     {}
func (ErrorNotice) inbound()      {}
func (HistoryReceived) inbound()  {}

func (BroadcastMessage) input() {}
func (PrivateMessage) input()   {}
func (Notification) input()     {}
func (ErrorNotice) input()      {}
func (HistoryReceived) input()  {}
