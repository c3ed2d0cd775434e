package chat

// Input is anything the session loop consumes: user intents and
// transport events alike. All of them travel through the same queue.
type Input interface {
	input()
}

// User intents.

type RequestConnect struct {
	Username string
}

type RequestDisconnect struct{}

type SubmitMessage struct {
	Content string
}

type SelectUser struct {
	Username string
}

type ClearChat struct{}

// Transport lifecycle events.

// Connected confirms the transport handshake. Subscriptions lists the
// destinations the transport is listening on.
type Connected struct {
	Subscriptions []string
}

type ConnectionFailed struct {
	Err error
}

type Disconnected struct{}

func (RequestConnect) input()    {}
func (RequestDisconnect) input() {}
func (SubmitMessage) input()     {}
func (SelectUser) input()        {}
func (ClearChat) input()         {}
func (Connected) input()         {}
func (ConnectionFailed) input()  {}
func (Disconnected) input()      {}
