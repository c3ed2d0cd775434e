// Package client turns console lines into session inputs and answers the
// commands that never reach the session (who, search, help).
package client

import (
	"chat-stomp/domain/chat"
	"chat-stomp/domain/search"
	"fmt"
	"strings"
)

type Kind int

const (
	// KindInput carries a chat.Input for the session loop.
	KindInput Kind = iota
	KindWho
	KindSearch
	KindHelp
	KindQuit
)

type Command struct {
	Kind  Kind
	Input chat.Input
	Query *search.Query
}

var ErrUnknownCommand = fmt.Errorf("unknown command")

// ParseLine maps one console line to a command. Plain text is a message;
// a leading "//" sends a literal slash.
func ParseLine(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") {
		return input(chat.SubmitMessage{Content: trimmed[1:]}), nil
	}
	if !strings.HasPrefix(trimmed, "/") {
		return input(chat.SubmitMessage{Content: line}), nil
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/connect":
		return input(chat.RequestConnect{Username: arg}), nil
	case "/disconnect":
		return input(chat.RequestDisconnect{}), nil
	case "/select", "/to":
		return input(chat.SelectUser{Username: arg}), nil
	case "/broadcast", "/all":
		return input(chat.SelectUser{}), nil
	case "/clear":
		return input(chat.ClearChat{}), nil
	case "/who":
		return Command{Kind: KindWho}, nil
	case "/search":
		return Command{Kind: KindSearch, Query: search.NewSearchQuery(trimmed)}, nil
	case "/help", "/?":
		return Command{Kind: KindHelp}, nil
	case "/quit", "/exit":
		return Command{Kind: KindQuit}, nil
	}
	return Command{}, fmt.Errorf("%w %q, type /help", ErrUnknownCommand, name)
}

func input(in chat.Input) Command {
	return Command{Kind: KindInput, Input: in}
}
