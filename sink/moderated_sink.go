package sink

import (
	"chat-stomp/contract"
	"chat-stomp/domain/chat"
	"context"
	"log/slog"
	"strings"
)

type Censor interface {
	Censor(original string) (string, []string)
}

// ModeratedSink masks dictionary words in chat lines before handing them to
// next. Only the display is affected.
type ModeratedSink struct {
	next   contract.RenderSink
	censor Censor
	log    *slog.Logger
}

func NewModeratedSink(next contract.RenderSink, censor Censor, log *slog.Logger) *ModeratedSink {
	return &ModeratedSink{next: next, censor: censor, log: log}
}

func (m *ModeratedSink) Consume(ctx context.Context, in chat.Instruction) error {
	if line, ok := in.(chat.ChatLine); ok {
		censored, words := m.censor.Censor(line.Content)
		if len(words) > 0 {
			m.log.Debug("Censored chat line", "author", line.Username, "words", strings.Join(words, ","))
			line.Content = censored
			in = line
		}
	}
	return m.next.Consume(ctx, in)
}
