package workers

import (
	"chat-stomp/contract"
	"chat-stomp/domain/chat"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventFanout hands render instructions to every registered sink.
//
// Instructions are delivered one at a time and in emission order; a sink
// sees instruction n+1 only after it returned from instruction n. Each
// call gets its own deadline so a stuck sink delays the others by at most
// sinkTimeout. Sink errors are logged and never propagated.
type EventFanout struct {
	log          *slog.Logger
	instructions <-chan chat.Instruction
	sinks        []contract.RenderSink
	sinkTimeout  time.Duration
}

func NewEventFanout(log *slog.Logger, sinks []contract.RenderSink,
	instructions <-chan chat.Instruction, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:          log,
		instructions: instructions,
		sinks:        sinks,
		sinkTimeout:  sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case in := <-w.instructions:
			w.Fanout(ctx, in)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping render fanout")
			return nil
		}
	}
}

// Fanout One sink call for each instruction
func (w *EventFanout) Fanout(ctx context.Context, in chat.Instruction) {
	for _, sink := range w.sinks {
		w.consume(ctx, sink, in)
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.RenderSink, in chat.Instruction) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, in); err != nil {
		w.log.Warn("Sink failed to consume instruction",
			"sink", fmt.Sprintf("%T", sink),
			"instruction", fmt.Sprintf("%T", in),
			"error", err)
	}
}
