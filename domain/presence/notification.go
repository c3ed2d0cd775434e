package presence

import "regexp"

// The server announces presence in English prose. These two sentences are
// the whole protocol.
var (
	joinedPattern = regexp.MustCompile(`User '(.+?)' joined the chat`)
	leftPattern   = regexp.MustCompile(`User '(.+?)' left the chat`)
)

type ChangeKind int

const (
	Joined ChangeKind = iota + 1
	Left
)

type Change struct {
	Kind     ChangeKind
	Username string
}

// ParseNotification extracts a join or leave from notification content.
// ok is false for any other text; that is not an error.
func ParseNotification(content string) (Change, bool) {
	if m := joinedPattern.FindStringSubmatch(content); m != nil {
		return Change{Kind: Joined, Username: m[1]}, true
	}
	if m := leftPattern.FindStringSubmatch(content); m != nil {
		return Change{Kind: Left, Username: m[1]}, true
	}
	return Change{}, false
}
