package chat

const (
	TagSendBroadcast = "send-broadcast"
	TagSendPrivate   = "send-private"
)

// OutboundCommand is produced by the session for the transport.
// Commands are never persisted.
type OutboundCommand interface {
	Effect
	Tag() string
}

type SendBroadcast struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

func (SendBroadcast) Tag() string { return TagSendBroadcast }

type SendPrivate struct {
	Username       string `json:"username"`
	Content        string `json:"content"`
	TargetUsername string `json:"targetUsername"`
}

func (SendPrivate) Tag() string { return TagSendPrivate }

func (SendBroadcast) effect() {}
func (SendPrivate) effect()   {}
