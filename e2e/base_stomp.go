package e2e

import (
	"chat-stomp/domain/chat"
	"chat-stomp/domain/session"
	"chat-stomp/infrastructure/stomp"
	"chat-stomp/projection"
	"chat-stomp/runtime"
	"chat-stomp/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

const waitFor = 5 * time.Second

type BaseStompSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseStompSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("CHAT_E2E_URL not set")
	}
}

// Participant is a full client stack: machine, transport, orchestrator and
// a view to assert on.
type Participant struct {
	Username     string
	View         *projection.ChatView
	orchestrator *runtime.Orchestrator
	cancel       context.CancelFunc
	done         chan error
}

// Join starts a client for username and waits until it is connected.
func (s *BaseStompSuite) Join(username string) *Participant {
	header := fmt.Sprintf("  ====== %s joins ======", username)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	logger := logs.GetLoggerFromLevel(slog.LevelDebug).With("participant", username)
	transport := stomp.NewClient(logger,
		stomp.WebSocketDialer(s.Config.ServerURL, waitFor, nil),
		stomp.Options{Host: s.Config.StompHost, HeartBeat: 10 * time.Second, Trace: s.Config.Trace})

	view := projection.NewChatView(0)
	orchestrator := runtime.NewOrchestrator(logger, workers.NewSupervisor(logger, 0), transport,
		session.NewMachine(), 64, time.Second)
	orchestrator.Add(view)

	ctx, cancel := context.WithCancel(context.Background())
	p := &Participant{Username: username, View: view, orchestrator: orchestrator, cancel: cancel, done: make(chan error, 1)}
	go func() { p.done <- orchestrator.Start(ctx) }()

	s.Post(p, chat.RequestConnect{Username: username})
	waitCtx, waitCancel := context.WithTimeout(ctx, waitFor)
	defer waitCancel()
	s.Require().NoError(view.WaitStatus(waitCtx, true), "%s did not connect", username)
	return p
}

func (s *BaseStompSuite) Post(p *Participant, in chat.Input) {
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	s.Require().NoError(p.orchestrator.Post(ctx, in))
}

// Leave disconnects p and stops its workers.
func (s *BaseStompSuite) Leave(p *Participant) {
	if p.View.Status().Connected {
		s.Post(p, chat.RequestDisconnect{})
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		s.Require().NoError(p.View.WaitStatus(ctx, false))
	}
	p.orchestrator.Stop()
	p.cancel()
	<-p.done
}

// EventuallyLine waits until p displays a line accepted by match.
func (s *BaseStompSuite) EventuallyLine(p *Participant, match func(chat.ChatLine) bool, msg string) {
	s.Require().Eventually(func() bool {
		for _, l := range p.View.Lines() {
			if match(l) {
				return true
			}
		}
		return false
	}, waitFor, 50*time.Millisecond, msg)
}

func (s *BaseStompSuite) EventuallyUsers(p *Participant, match func([]chat.UserEntry) bool, msg string) {
	s.Require().Eventually(func() bool { return match(p.View.Users()) }, waitFor, 50*time.Millisecond, msg)
}
