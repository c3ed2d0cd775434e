package runtime

import (
	"chat-stomp/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"dict/en.txt":       {Data: []byte("badger\r\nsnake\n\n# comment\n")},
		"dict/fr.txt":       {Data: []byte("blaireau\nbadger\n")},
		"dict/README.md":    {Data: []byte("not a dictionary")},
		"dict/nested/x.txt": {Data: []byte("ignored")},
	}

	data, err := NewCensoredLoader(fsys).LoadAll("dict")

	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	req.ElementsMatch([]string{"badger", "snake", "blaireau"}, data.Words)
}

func TestCensoredLoader_Empty(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{"dict/en.txt": {Data: []byte("\n\n")}}

	_, err := NewCensoredLoader(fsys).LoadAll("dict")

	req.ErrorIs(err, errors.ErrEmptyWords)
}
