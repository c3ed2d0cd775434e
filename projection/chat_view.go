// Package projection builds the local view of the chat from render instructions.
// It keeps what a screen would show: the chat area, the user list, the mode
// and the connection status. It does not emit anything.
package projection

import (
	"chat-stomp/domain/chat"
	"context"
	"slices"
	"sync"
)

const DefaultMaxLines = 500

// ChatView is safe for concurrent use: the fanout writes, the console reads.
type ChatView struct {
	mu            sync.RWMutex
	maxLines      int
	lines         []chat.ChatLine
	notices       []chat.SystemNotice
	users         []chat.UserEntry
	mode          chat.ModeIndicator
	status        chat.ConnectionStatus
	statusChanged chan struct{}
}

func NewChatView(maxLines int) *ChatView {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &ChatView{maxLines: maxLines, statusChanged: make(chan struct{})}
}

func (v *ChatView) Consume(_ context.Context, in chat.Instruction) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch i := in.(type) {
	case chat.ChatLine:
		v.lines = append(v.lines, i)
		if over := len(v.lines) - v.maxLines; over > 0 {
			v.lines = slices.Delete(v.lines, 0, over)
		}
	case chat.SystemNotice:
		v.notices = append(v.notices, i)
		if over := len(v.notices) - v.maxLines; over > 0 {
			v.notices = slices.Delete(v.notices, 0, over)
		}
	case chat.UserList:
		v.users = slices.Clone(i.Entries)
	case chat.ModeIndicator:
		v.mode = i
	case chat.ConnectionStatus:
		v.status = i
		close(v.statusChanged)
		v.statusChanged = make(chan struct{})
	case chat.ChatCleared:
		v.lines = nil
	}
	return nil
}

func (v *ChatView) Lines() []chat.ChatLine {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.lines)
}

func (v *ChatView) Notices() []chat.SystemNotice {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.notices)
}

// Users is the online list in rendered order.
func (v *ChatView) Users() []chat.UserEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.users)
}

func (v *ChatView) Mode() chat.ModeIndicator {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

func (v *ChatView) Status() chat.ConnectionStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// WaitStatus blocks until the connection status equals connected or ctx is done.
func (v *ChatView) WaitStatus(ctx context.Context, connected bool) error {
	for {
		v.mu.RLock()
		if v.status.Connected == connected {
			v.mu.RUnlock()
			return nil
		}
		changed := v.statusChanged
		v.mu.RUnlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
