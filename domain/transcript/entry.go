// Package transcript describes the local record of what the chat client displayed.
package transcript

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindNotice = "notice"
	KindError  = "error"
)

// Entry is one displayed line. Kind is a chat.LineKind value or one of the
// notice kinds above.
type Entry struct {
	ID      uuid.UUID
	Kind    string
	Author  string
	Target  string
	Content string
	Lang    string
	At      time.Time
}

// Hit is a search result. Key is the storage key of the matching entry.
type Hit struct {
	Key   string
	Score float64
}
