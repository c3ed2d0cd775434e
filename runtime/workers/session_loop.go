package workers

import (
	"chat-stomp/contract"
	"chat-stomp/domain/chat"
	"chat-stomp/domain/session"
	"context"
	"fmt"
	"log/slog"
)

// SessionLoop is the only goroutine that touches the session machine.
// It takes one input at a time, lets the machine decide, then executes the
// resulting effects in order: transport orders and commands go to the
// transport, render instructions go to the render queue.
type SessionLoop struct {
	log          *slog.Logger
	machine      *session.Machine
	transport    contract.Transport
	inbox        contract.Inbox
	inputs       <-chan chat.Input
	instructions chan<- chat.Instruction
}

func NewSessionLoop(log *slog.Logger, machine *session.Machine, transport contract.Transport,
	inbox contract.Inbox, inputs <-chan chat.Input, instructions chan<- chat.Instruction) *SessionLoop {
	return &SessionLoop{
		log:          log,
		machine:      machine,
		transport:    transport,
		inbox:        inbox,
		inputs:       inputs,
		instructions: instructions,
	}
}

func (l *SessionLoop) Run(ctx context.Context) error {
	for {
		select {
		case in := <-l.inputs:
			l.Process(ctx, in)
		case <-ctx.Done():
			l.log.Debug("Context done, stopping session loop")
			return nil
		}
	}
}

// Process handles one input to completion, effects included.
func (l *SessionLoop) Process(ctx context.Context, in chat.Input) {
	if err := l.machine.Handle(in); err != nil {
		l.log.Debug("Input rejected", "input", fmt.Sprintf("%T", in), "error", err)
	}
	for _, effect := range l.machine.FlushEffects() {
		l.execute(ctx, effect)
	}
}

func (l *SessionLoop) execute(ctx context.Context, effect chat.Effect) {
	switch e := effect.(type) {
	case chat.OpenConnection:
		l.log.Info("Connecting", "username", e.Username)
		if err := l.transport.Connect(ctx, e.Username, l.inbox); err != nil {
			// Posting would block on our own queue.
			l.Process(ctx, chat.ConnectionFailed{Err: err})
		}
	case chat.CloseConnection:
		l.log.Info("Disconnecting", "username", l.machine.CurrentUsername())
		if err := l.transport.Disconnect(ctx); err != nil {
			l.log.Warn("Disconnect failed", "error", err)
			l.Process(ctx, chat.Disconnected{})
		}
	case chat.OutboundCommand:
		if err := l.transport.Send(ctx, e); err != nil {
			l.log.Warn("Send failed", "command", e.Tag(), "error", err)
			l.render(ctx, chat.SystemNotice{Text: "Send failed: " + err.Error(), IsError: true})
		}
	case chat.Instruction:
		l.render(ctx, e)
	default:
		l.log.Warn("Unknown effect", "effect", fmt.Sprintf("%T", effect))
	}
}

func (l *SessionLoop) render(ctx context.Context, in chat.Instruction) {
	select {
	case l.instructions <- in:
	case <-ctx.Done():
	}
}
