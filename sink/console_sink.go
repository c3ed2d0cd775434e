package sink

import (
	"chat-stomp/domain/chat"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/samber/lo"
)

// LockedWriter serialises writes from the fanout and the console reader so
// their lines never interleave.
type LockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLockedWriter(w io.Writer) *LockedWriter {
	return &LockedWriter{w: w}
}

func (l *LockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type ConsoleOptions struct {
	Color bool
	Debug bool
}

var (
	stylePrivate      = color.New(color.FgMagenta)
	styleSentPrivate  = color.New(color.FgCyan)
	styleNotification = color.New(color.FgYellow)
	styleHistory      = color.New(color.FgBlue, color.OpItalic)
	styleNotice       = color.New(color.FgGreen)
	styleError        = color.New(color.FgRed, color.OpBold)
	styleDebug        = color.New(color.FgBlue)
	styleSelf         = color.New(color.OpBold)
)

// ConsoleSink prints render instructions as terminal lines.
type ConsoleSink struct {
	out  io.Writer
	opts ConsoleOptions
}

func NewConsoleSink(out io.Writer, opts ConsoleOptions) *ConsoleSink {
	return &ConsoleSink{out: out, opts: opts}
}

func (c *ConsoleSink) Consume(_ context.Context, in chat.Instruction) error {
	var line string
	switch i := in.(type) {
	case chat.ChatLine:
		line = c.chatLine(i)
	case chat.SystemNotice:
		if i.IsError {
			line = c.paint(styleError, "✖ "+i.Text)
		} else {
			line = c.paint(styleNotice, "* "+i.Text)
		}
	case chat.DebugInfo:
		if !c.opts.Debug {
			return nil
		}
		line = c.paint(styleDebug, "[debug] "+i.Text)
	case chat.UserList:
		line = c.userList(i)
	case chat.ModeIndicator:
		line = i.String()
	case chat.ConnectionStatus:
		if i.Connected {
			line = c.paint(styleNotice, "● Connected as "+i.Username)
		} else {
			line = "○ Disconnected"
		}
	case chat.ChatCleared:
		if c.opts.Color {
			// Clear screen, cursor home.
			line = "\033[2J\033[H"
			_, err := io.WriteString(c.out, line)
			return err
		}
		line = "----- chat cleared -----"
	default:
		return nil
	}
	_, err := fmt.Fprintln(c.out, line)
	return err
}

func (c *ConsoleSink) chatLine(l chat.ChatLine) string {
	text := fmt.Sprintf("[%s] %s", l.Clock(), l.String())
	switch l.Kind {
	case chat.LinePrivate:
		return c.paint(stylePrivate, text)
	case chat.LineSentPrivate:
		return c.paint(styleSentPrivate, text)
	case chat.LineNotification:
		return c.paint(styleNotification, text)
	case chat.LineHistory:
		return c.paint(styleHistory, text)
	default:
		return text
	}
}

func (c *ConsoleSink) userList(l chat.UserList) string {
	names := lo.Map(l.Entries, func(u chat.UserEntry, _ int) string {
		name := u.Username
		if u.Self {
			name = c.paint(styleSelf, name+" (you)")
		}
		if u.Selected {
			name += " [selected]"
		}
		return name
	})
	return fmt.Sprintf("Online (%d): %s", len(names), strings.Join(names, ", "))
}

func (c *ConsoleSink) paint(style color.Style, s string) string {
	if !c.opts.Color {
		return s
	}
	return style.Render(s)
}
