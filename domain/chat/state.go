package chat

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// Session lives from a confirmed connect to the matching disconnect.
type Session struct {
	CurrentUsername string
	Connected       bool
}
