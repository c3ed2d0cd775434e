package workers

import (
	"chat-stomp/domain/chat"
	"chat-stomp/domain/session"
	"chat-stomp/mocks"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func drain(ch chan chat.Instruction) []chat.Instruction {
	var out []chat.Instruction
	for {
		select {
		case in := <-ch:
			out = append(out, in)
		default:
			return out
		}
	}
}

func newTestLoop(t *testing.T) (*SessionLoop, *mocks.MockTransport, *mocks.MockInbox, chan chat.Instruction) {
	t.Helper()
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	inbox := mocks.NewMockInbox(ctrl)
	instructions := make(chan chat.Instruction, 64)
	loop := NewSessionLoop(logs.GetLoggerFromLevel(slog.LevelDebug), session.NewMachine(),
		transport, inbox, nil, instructions)
	return loop, transport, inbox, instructions
}

func TestSessionLoop_ConnectAndBroadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	loop, transport, inbox, instructions := newTestLoop(t)

	// Given the transport accepts the connection request
	transport.EXPECT().Connect(gomock.Any(), "alice", inbox).Return(nil).Times(1)

	// When alice connects and the transport confirms
	loop.Process(ctx, chat.RequestConnect{Username: "alice"})
	loop.Process(ctx, chat.Connected{Subscriptions: []string{"/topic/messages"}})
	drain(instructions)

	// Then a broadcast from bob is rendered
	loop.Process(ctx, chat.BroadcastMessage{Username: "bob", Content: "hi"})
	rendered := drain(instructions)
	req.Contains(rendered, chat.Instruction(chat.ChatLine{Kind: chat.LineBroadcast, Username: "bob", Content: "hi"}))

	// And a submitted message reaches the transport
	transport.EXPECT().Send(gomock.Any(), chat.SendBroadcast{Username: "alice", Content: "hello"}).Return(nil)
	loop.Process(ctx, chat.SubmitMessage{Content: "hello"})
}

func TestSessionLoop_ConnectFailsImmediately(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	loop, transport, _, instructions := newTestLoop(t)

	// Given the transport refuses right away
	transport.EXPECT().Connect(gomock.Any(), "alice", gomock.Any()).Return(errors.New("bad url"))

	// When alice connects
	loop.Process(ctx, chat.RequestConnect{Username: "alice"})

	// Then the failure is rendered and the machine is back to disconnected
	req.Contains(drain(instructions), chat.Instruction(chat.SystemNotice{Text: "Connection failed: bad url", IsError: true}))
	req.Equal(chat.StateDisconnected, loop.machine.State())
}

func TestSessionLoop_SendFailure_IsRendered(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	loop, transport, _, instructions := newTestLoop(t)

	transport.EXPECT().Connect(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	loop.Process(ctx, chat.RequestConnect{Username: "alice"})
	loop.Process(ctx, chat.Connected{})
	drain(instructions)

	// Given the transport cannot send
	transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("not connected"))

	// When a message is submitted
	loop.Process(ctx, chat.SubmitMessage{Content: "hello"})

	// Then the failure is shown
	req.Equal([]chat.Instruction{chat.SystemNotice{Text: "Send failed: not connected", IsError: true}}, drain(instructions))
}

func TestSessionLoop_Disconnect(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	loop, transport, _, instructions := newTestLoop(t)

	transport.EXPECT().Connect(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	loop.Process(ctx, chat.RequestConnect{Username: "alice"})
	loop.Process(ctx, chat.Connected{})

	// Given the transport accepts to close once
	transport.EXPECT().Disconnect(gomock.Any()).Return(nil).Times(1)

	// When the user asks twice then the transport confirms
	loop.Process(ctx, chat.RequestDisconnect{})
	loop.Process(ctx, chat.RequestDisconnect{})
	drain(instructions)
	loop.Process(ctx, chat.Disconnected{})

	// Then everything is reset
	req.Contains(drain(instructions), chat.Instruction(chat.SystemNotice{Text: "Disconnected from server"}))
	req.Equal(chat.StateDisconnected, loop.machine.State())
	req.Empty(loop.machine.OnlineUsers())
}

func TestSessionLoop_Run_ConsumesInputs(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	inputs := make(chan chat.Input, 1)
	instructions := make(chan chat.Instruction, 8)
	loop := NewSessionLoop(slog.Default(), session.NewMachine(), transport, nil, inputs, instructions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error)
	go func() { done <- loop.Run(ctx) }()

	// When a blank username is posted
	inputs <- chat.RequestConnect{Username: " "}

	// Then the validation notice is rendered
	in := <-instructions
	notice, ok := in.(chat.SystemNotice)
	req.True(ok)
	req.True(notice.IsError)

	cancel()
	req.NoError(<-done)
}
