package client

import (
	"chat-stomp/contract"
	"chat-stomp/domain/search"
	"chat-stomp/errors"
	"chat-stomp/projection"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

const helpText = `Commands:
  /connect <name>    join the chat
  /disconnect        leave the chat
  /select <name>     send the next messages privately to <name>
  /broadcast         send the next messages to everyone
  /who               list online users
  /clear             clear the chat area
  /search <terms> [--from user] [--lang xx] [--limit n]
  /help              this help
  /quit              disconnect and exit
Anything else is sent as a message.`

// Console answers local commands. transcript may be nil when the transcript
// is disabled.
type Console struct {
	out        io.Writer
	view       *projection.ChatView
	transcript contract.ITranscript
}

func NewConsole(out io.Writer, view *projection.ChatView, transcript contract.ITranscript) *Console {
	return &Console{out: out, view: view, transcript: transcript}
}

func (c *Console) PrintHelp() {
	fmt.Fprintln(c.out, helpText)
}

func (c *Console) PrintError(err error) {
	fmt.Fprintf(c.out, "✖ %v\n", err)
}

// PrintUsers renders the online list as the session last rendered it.
func (c *Console) PrintUsers() {
	status := c.view.Status()
	if !status.Connected {
		fmt.Fprintln(c.out, "Not connected")
		return
	}

	table := newTable(c.out)
	table.SetHeader([]string{"User", "Note"})
	for _, u := range c.view.Users() {
		var notes []string
		if u.Self {
			notes = append(notes, "you")
		}
		if u.Selected {
			notes = append(notes, "private target")
		}
		table.Append([]string{u.Username, strings.Join(notes, ", ")})
	}
	table.Render()
	fmt.Fprintln(c.out, c.view.Mode().String())
}

func (c *Console) PrintSearch(ctx context.Context, query search.Query) error {
	if c.transcript == nil {
		return errors.ErrTranscriptClosed
	}
	entries, err := c.transcript.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No match")
		return nil
	}

	table := newTable(c.out)
	table.SetHeader([]string{"Time", "Kind", "From", "Lang", "Content"})
	for _, e := range entries {
		table.Append([]string{
			e.At.Local().Format(time.DateTime),
			e.Kind,
			e.Author,
			e.Lang,
			e.Content,
		})
	}
	table.Render()
	return nil
}

func newTable(out io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	return table
}
