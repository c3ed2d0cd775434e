// Package runtime wires the session machine to its transport and its sinks.
// It owns the queues and the supervised workers, not the chat rules.
package runtime

import (
	"chat-stomp/contract"
	"chat-stomp/domain/chat"
	"chat-stomp/domain/session"
	"chat-stomp/moderation"
	"chat-stomp/runtime/workers"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

//go:embed censored/*
var censoredFolder embed.FS

type Orchestrator struct {
	mu           sync.Mutex
	log          *slog.Logger
	supervisor   contract.ISupervisor
	transport    contract.Transport
	machine      *session.Machine
	sinks        []contract.RenderSink
	workers      []contract.Worker
	inputs       chan chat.Input
	instructions chan chat.Instruction
	sinkTimeout  time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, transport contract.Transport,
	machine *session.Machine, bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:          log,
		supervisor:   supervisor,
		transport:    transport,
		machine:      machine,
		inputs:       make(chan chat.Input, bufferSize),
		instructions: make(chan chat.Instruction, bufferSize),
		sinkTimeout:  sinkTimeout,
	}
}

// Post queues an input for the session loop. Every user intent and every
// transport event goes through here, so they are handled strictly one at a time.
func (o *Orchestrator) Post(ctx context.Context, in chat.Input) error {
	select {
	case o.inputs <- in:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("posting %T: %w", in, ctx.Err())
	}
}

// Add registers render sinks. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.RenderSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
}

// AddWorkers registers extra supervised workers such as the console reader.
func (o *Orchestrator) AddWorkers(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, w...)
}

// MonitorQueues samples the input and render queues every interval and warns
// when one is at least thresholdPercent full.
func (o *Orchestrator) MonitorQueues(interval time.Duration, thresholdPercent int) {
	o.AddWorkers(workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
		{Name: "inputs", Channel: o.inputs},
		{Name: "instructions", Channel: o.instructions},
	}, interval, thresholdPercent))
}

// Start registers the session loop, the render fanout and the extra workers,
// then blocks in the supervisor until ctx is done or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	sessionLoop := workers.NewSessionLoop(o.log, o.machine, o.transport, o, o.inputs, o.instructions)
	fanout := workers.NewEventFanout(o.log, o.sinks, o.instructions, o.sinkTimeout)

	o.supervisor.Add(sessionLoop, fanout)
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised workers. The transport is not touched; callers
// post chat.RequestDisconnect first when a session is open.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// LoadModerator builds the censor from the embedded dictionaries.
func LoadModerator(log *slog.Logger, charReplacement rune) (*moderation.Moderator, error) {
	data, err := NewCensoredLoader(censoredFolder).LoadAll("censored")
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Debug(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	return moderation.NewModerator(data.Words, charReplacement)
}
