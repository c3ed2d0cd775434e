package client

import (
	"chat-stomp/domain/chat"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Command
	}{
		{"Plain message is kept verbatim", "  hello all ", input(chat.SubmitMessage{Content: "  hello all "})},
		{"Blank line is still a message", "   ", input(chat.SubmitMessage{Content: "   "})},
		{"Escaped slash", "//shrug", input(chat.SubmitMessage{Content: "/shrug"})},
		{"Connect", "/connect alice", input(chat.RequestConnect{Username: "alice"})},
		{"Connect without name", "/connect", input(chat.RequestConnect{})},
		{"Disconnect", "/disconnect", input(chat.RequestDisconnect{})},
		{"Select", "/select  bob ", input(chat.SelectUser{Username: "bob"})},
		{"Select alias", "/to carol", input(chat.SelectUser{Username: "carol"})},
		{"Broadcast", "/broadcast", input(chat.SelectUser{})},
		{"Clear", "/CLEAR", input(chat.ClearChat{})},
		{"Who", "/who", Command{Kind: KindWho}},
		{"Help", "/help", Command{Kind: KindHelp}},
		{"Quit", "/quit", Command{Kind: KindQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := ParseLine(tt.line)
			req.NoError(err)
			req.Equal(tt.expected, cmd)
		})
	}
}

func TestParseLine_Search(t *testing.T) {
	req := require.New(t)

	cmd, err := ParseLine("/search deploy --from bob")

	req.NoError(err)
	req.Equal(KindSearch, cmd.Kind)
	req.Equal("deploy", cmd.Query.Terms)
	req.Equal("bob", cmd.Query.From)
}

func TestParseLine_Unknown(t *testing.T) {
	req := require.New(t)

	_, err := ParseLine("/dance now")

	req.ErrorIs(err, ErrUnknownCommand)
	req.Contains(err.Error(), "/dance")
}
