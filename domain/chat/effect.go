package chat

// Effect is a side effect requested by the session: a transport order, an
// outbound command or a render instruction. The runtime executes effects in
// the order they were emitted.
type Effect interface {
	effect()
}

// OpenConnection asks the transport to connect with Username as identity.
type OpenConnection struct {
	Username string
}

// CloseConnection asks the transport to close the current connection.
type CloseConnection struct{}

func (OpenConnection) effect()  {}
func (CloseConnection) effect() {}
