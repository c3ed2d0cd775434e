package stomp

import (
	"bytes"
	"chat-stomp/domain/chat"
	"chat-stomp/errors"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Layouts the server may use for timestamps. The Spring server writes a
// LocalDateTime with a literal Z.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// wireTime accepts epoch milliseconds or an ISO-8601 string. Anything else
// decodes to the zero time rather than failing the whole payload.
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return nil
	}
	if ms, err := strconv.ParseFloat(string(b), 64); err == nil {
		t.Time = time.UnixMilli(int64(ms))
	}
	return nil
}

type wireMessage struct {
	Username    string   `json:"username"`
	Content     string   `json:"content"`
	Timestamp   wireTime `json:"timestamp"`
	MessageType string   `json:"messageType,omitempty"`
}

type wireError struct {
	ErrorCode string   `json:"errorCode"`
	Message   string   `json:"message"`
	Timestamp wireTime `json:"timestamp"`
}

type decoder func(body []byte) (chat.Input, error)

func unmarshal(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

func decodeBroadcast(body []byte) (chat.Input, error) {
	var w wireMessage
	if err := unmarshal(body, &w); err != nil {
		return nil, err
	}
	return chat.BroadcastMessage{Username: w.Username, Content: w.Content, Timestamp: w.Timestamp.Time}, nil
}

func decodePrivate(body []byte) (chat.Input, error) {
	var w wireMessage
	if err := unmarshal(body, &w); err != nil {
		return nil, err
	}
	return chat.PrivateMessage{Username: w.Username, Content: w.Content, Timestamp: w.Timestamp.Time}, nil
}

func decodeNotification(body []byte) (chat.Input, error) {
	var w wireMessage
	if err := unmarshal(body, &w); err != nil {
		return nil, err
	}
	return chat.Notification{Username: w.Username, Content: w.Content, Timestamp: w.Timestamp.Time}, nil
}

func decodeError(body []byte) (chat.Input, error) {
	var w wireError
	if err := unmarshal(body, &w); err != nil {
		return nil, err
	}
	if w.Message == "" {
		return nil, fmt.Errorf("%w: error without message", errors.ErrInvalidPayload)
	}
	return chat.ErrorNotice{Code: w.ErrorCode, Message: w.Message}, nil
}

func decodeHistory(body []byte) (chat.Input, error) {
	var ws []wireMessage
	if err := unmarshal(body, &ws); err != nil {
		return nil, err
	}
	messages := make([]chat.BroadcastMessage, 0, len(ws))
	for _, w := range ws {
		messages = append(messages, chat.BroadcastMessage{Username: w.Username, Content: w.Content, Timestamp: w.Timestamp.Time})
	}
	return chat.HistoryReceived{Messages: messages}, nil
}

func encodeCommand(d Destinations, cmd chat.OutboundCommand) (string, []byte, error) {
	var destination string
	switch cmd.(type) {
	case chat.SendBroadcast:
		destination = d.SendBroadcast
	case chat.SendPrivate:
		destination = d.SendPrivate
	default:
		return "", nil, fmt.Errorf("%w: unsupported command %s", errors.ErrInvalidPayload, cmd.Tag())
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return "", nil, fmt.Errorf("encoding %s: %w", cmd.Tag(), err)
	}
	return destination, body, nil
}
