package chat

import (
	"fmt"
	"time"
)

// Instruction is a render order for the UI sinks. The session never touches
// a display; it only emits instructions.
type Instruction interface {
	Effect
	instruction()
}

type LineKind string

const (
	LineBroadcast    LineKind = "broadcast"
	LinePrivate      LineKind = "private"
	LineSentPrivate  LineKind = "private-sent"
	LineNotification LineKind = "notification"
	LineHistory      LineKind = "history"
)

// ChatLine is one message in the chat area.
type ChatLine struct {
	Kind     LineKind
	Username string
	// Target is only set for LineSentPrivate.
	Target  string
	Content string
	At      time.Time
}

func (l ChatLine) String() string {
	switch l.Kind {
	case LinePrivate:
		return fmt.Sprintf("%s (private): %s", l.Username, l.Content)
	case LineSentPrivate:
		return fmt.Sprintf("You → %s: %s", l.Target, l.Content)
	case LineNotification:
		if l.Username == SystemSender {
			return fmt.Sprintf("🔔 %s: %s", l.Username, l.Content)
		}
		return fmt.Sprintf("%s: %s", l.Username, l.Content)
	default:
		return fmt.Sprintf("%s: %s", l.Username, l.Content)
	}
}

// Clock renders the line time, or a placeholder when the server sent none.
func (l ChatLine) Clock() string {
	if l.At.IsZero() {
		return "--:--:--"
	}
	return l.At.Local().Format(time.TimeOnly)
}

type SystemNotice struct {
	Text    string
	IsError bool
}

type DebugInfo struct {
	Text string
}

type UserEntry struct {
	Username string
	Self     bool
	Selected bool
}

// UserList is the full online list, already ordered: self first, then the
// others in collation order. Sinks must render it as is.
type UserList struct {
	Entries []UserEntry
}

// ModeIndicator shows where the next message goes. Empty Target means broadcast.
type ModeIndicator struct {
	Target string
}

func (m ModeIndicator) String() string {
	if m.Target == "" {
		return "Mode: Broadcast (messages go to all users)"
	}
	return fmt.Sprintf("Mode: Private → %s", m.Target)
}

type ConnectionStatus struct {
	Connected bool
	Username  string
}

type ChatCleared struct{}

func (ChatLine) instruction()         {}
func (SystemNotice) instruction()     {}
func (DebugInfo) instruction()        {}
func (UserList) instruction()         {}
func (ModeIndicator) instruction()    {}
func (ConnectionStatus) instruction() {}
func (ChatCleared) instruction()      {}

func (ChatLine) effect()         {}
func (SystemNotice) effect()     {}
func (DebugInfo) effect()        {}
func (UserList) effect()         {}
func (ModeIndicator) effect()    {}
func (ConnectionStatus) effect() {}
func (ChatCleared) effect()      {}
