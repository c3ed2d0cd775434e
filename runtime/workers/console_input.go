package workers

import (
	"bufio"
	"chat-stomp/client"
	"chat-stomp/contract"
	"context"
	"io"
	"log/slog"
	"sync"
)

// ConsoleInput reads console lines and turns them into session inputs or
// local commands. The reader goroutine is started once and survives restarts
// of Run, so no line is lost after a crash.
type ConsoleInput struct {
	log     *slog.Logger
	reader  io.Reader
	inbox   contract.Inbox
	console *client.Console
	quit    func()
	once    sync.Once
	lines   chan string
	readErr chan error
}

func NewConsoleInput(log *slog.Logger, reader io.Reader, inbox contract.Inbox,
	console *client.Console, quit func()) *ConsoleInput {
	return &ConsoleInput{
		log:     log,
		reader:  reader,
		inbox:   inbox,
		console: console,
		quit:    quit,
		lines:   make(chan string),
		readErr: make(chan error, 1),
	}
}

func (w *ConsoleInput) Run(ctx context.Context) error {
	w.once.Do(func() { go w.scan() })

	for {
		select {
		case line := <-w.lines:
			if stop := w.Handle(ctx, line); stop {
				return nil
			}
		case err := <-w.readErr:
			if err != nil {
				w.log.Warn("Console input failed", "error", err)
			}
			// End of input behaves like /quit.
			w.quit()
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Handle processes one line and reports whether the user asked to quit.
func (w *ConsoleInput) Handle(ctx context.Context, line string) bool {
	cmd, err := client.ParseLine(line)
	if err != nil {
		w.console.PrintError(err)
		return false
	}

	switch cmd.Kind {
	case client.KindInput:
		if err := w.inbox.Post(ctx, cmd.Input); err != nil {
			w.log.Debug("Input not posted", "error", err)
		}
	case client.KindWho:
		w.console.PrintUsers()
	case client.KindSearch:
		if err := w.console.PrintSearch(ctx, *cmd.Query); err != nil {
			w.console.PrintError(err)
		}
	case client.KindHelp:
		w.console.PrintHelp()
	case client.KindQuit:
		w.quit()
		return true
	}
	return false
}

func (w *ConsoleInput) scan() {
	scanner := bufio.NewScanner(w.reader)
	for scanner.Scan() {
		w.lines <- scanner.Text()
	}
	w.readErr <- scanner.Err()
}
