package storage

import (
	"chat-stomp/domain/transcript"
	"chat-stomp/errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the on-disk entry record. Never renumber.
const (
	fieldID      protowire.Number = 1
	fieldKind    protowire.Number = 2
	fieldAuthor  protowire.Number = 3
	fieldTarget  protowire.Number = 4
	fieldContent protowire.Number = 5
	fieldLang    protowire.Number = 6
	fieldAt      protowire.Number = 7
)

func marshalEntry(e transcript.Entry) []byte {
	var b []byte
	b = appendString(b, fieldID, e.ID.String())
	b = appendString(b, fieldKind, e.Kind)
	b = appendString(b, fieldAuthor, e.Author)
	b = appendString(b, fieldTarget, e.Target)
	b = appendString(b, fieldContent, e.Content)
	b = appendString(b, fieldLang, e.Lang)
	if !e.At.IsZero() {
		b = protowire.AppendTag(b, fieldAt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(e.At.UnixNano()))
	}
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// unmarshalEntry skips unknown fields so older binaries can read newer records.
func unmarshalEntry(b []byte) (transcript.Entry, error) {
	var e transcript.Entry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return transcript.Entry{}, decodeError(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && num >= fieldID && num <= fieldLang:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return transcript.Entry{}, decodeError(n)
			}
			b = b[n:]
			if err := setString(&e, num, v); err != nil {
				return transcript.Entry{}, err
			}
		case typ == protowire.VarintType && num == fieldAt:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return transcript.Entry{}, decodeError(n)
			}
			b = b[n:]
			e.At = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return transcript.Entry{}, decodeError(n)
			}
			b = b[n:]
		}
	}
	return e, nil
}

func setString(e *transcript.Entry, num protowire.Number, v string) error {
	switch num {
	case fieldID:
		id, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("%w: entry id: %v", errors.ErrInvalidPayload, err)
		}
		e.ID = id
	case fieldKind:
		e.Kind = v
	case fieldAuthor:
		e.Author = v
	case fieldTarget:
		e.Target = v
	case fieldContent:
		e.Content = v
	case fieldLang:
		e.Lang = v
	}
	return nil
}

func decodeError(n int) error {
	return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, protowire.ParseError(n))
}
