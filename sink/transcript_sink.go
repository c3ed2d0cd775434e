package sink

import (
	"chat-stomp/contract"
	"chat-stomp/domain/chat"
	"chat-stomp/domain/transcript"
	"context"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// TranscriptSink records chat lines and notices in the local transcript.
type TranscriptSink struct {
	transcript contract.ITranscript
	log        *slog.Logger
	now        func() time.Time
}

func NewTranscriptSink(transcript contract.ITranscript, log *slog.Logger) *TranscriptSink {
	return &TranscriptSink{transcript: transcript, log: log, now: time.Now}
}

func (t *TranscriptSink) Consume(_ context.Context, in chat.Instruction) error {
	var entry transcript.Entry
	switch i := in.(type) {
	case chat.ChatLine:
		entry = transcript.Entry{
			Kind:    string(i.Kind),
			Author:  i.Username,
			Target:  i.Target,
			Content: i.Content,
			Lang:    DetectLanguage(i.Content),
			At:      i.At,
		}
	case chat.SystemNotice:
		entry = transcript.Entry{Kind: transcript.KindNotice, Content: i.Text}
		if i.IsError {
			entry.Kind = transcript.KindError
		}
	default:
		return nil
	}

	entry.ID = uuid.New()
	if entry.At.IsZero() {
		entry.At = t.now().UTC()
	}
	if err := t.transcript.Append(entry); err != nil {
		t.log.Error("Transcript append failed", "kind", entry.Kind, "error", err)
		return err
	}
	return nil
}

// DetectLanguage returns the ISO 639-1 code of text, or "" when the guess
// is not reliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
