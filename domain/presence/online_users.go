// Package presence tracks which users the client currently considers online.
package presence

import (
	"slices"

	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// OnlineUsers is an unordered set of usernames with a deterministic
// rendering order. It is not safe for concurrent use; the session loop
// owns it.
type OnlineUsers struct {
	users    map[string]struct{}
	collator *collate.Collator
}

func NewOnlineUsers() *OnlineUsers {
	return NewOnlineUsersWithLocale(language.English)
}

func NewOnlineUsersWithLocale(tag language.Tag) *OnlineUsers {
	return &OnlineUsers{
		users:    make(map[string]struct{}),
		collator: collate.New(tag),
	}
}

// Add reports whether the set changed.
func (o *OnlineUsers) Add(username string) bool {
	if username == "" {
		return false
	}
	if _, ok := o.users[username]; ok {
		return false
	}
	o.users[username] = struct{}{}
	return true
}

// Remove reports whether the set changed.
func (o *OnlineUsers) Remove(username string) bool {
	if _, ok := o.users[username]; !ok {
		return false
	}
	delete(o.users, username)
	return true
}

func (o *OnlineUsers) Has(username string) bool {
	_, ok := o.users[username]
	return ok
}

func (o *OnlineUsers) Len() int {
	return len(o.users)
}

func (o *OnlineUsers) Clear() {
	clear(o.users)
}

// Ordered returns self first (when present) followed by everyone else in
// ascending collation order. It is recomputed from scratch on each call.
func (o *OnlineUsers) Ordered(self string) []string {
	others := lo.Filter(lo.Keys(o.users), func(u string, _ int) bool {
		return u != self
	})
	slices.SortFunc(others, func(a, b string) int {
		if c := o.collator.CompareString(a, b); c != 0 {
			return c
		}
		// Collation can consider distinct strings equal; fall back to bytes
		// so the order stays total.
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	if self != "" && o.Has(self) {
		return append([]string{self}, others...)
	}
	return others
}
