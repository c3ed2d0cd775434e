package storage

import (
	"chat-stomp/domain/search"
	"chat-stomp/domain/transcript"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newMemoryIndex(t *testing.T) *TranscriptIndex {
	t.Helper()
	writer, err := OpenIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewTranscriptIndex(writer, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func indexAll(t *testing.T, index *TranscriptIndex, entries ...transcript.Entry) []string {
	t.Helper()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		e.ID = uuid.New()
		key := EntryKey(e)
		require.NoError(t, index.Index(key, e))
		keys = append(keys, key)
	}
	return keys
}

func TestTranscriptIndex_Search(t *testing.T) {
	now := time.Now().UTC()
	index := newMemoryIndex(t)
	keys := indexAll(t, index,
		transcript.Entry{Kind: "broadcast", Author: "bob", Content: "Deploy on Friday", Lang: "en", At: now},
		transcript.Entry{Kind: "broadcast", Author: "alice", Content: "No deploy on Friday please", Lang: "en", At: now.Add(time.Second)},
		transcript.Entry{Kind: "broadcast", Author: "carol", Content: "On déploie vendredi", Lang: "fr", At: now.Add(2 * time.Second)},
	)

	tests := []struct {
		name  string
		query search.Query
		want  []string
	}{
		{name: "terms match case-insensitively", query: search.Query{Terms: "DEPLOY friday"}, want: []string{keys[0], keys[1]}},
		{name: "all terms are required", query: search.Query{Terms: "deploy please"}, want: []string{keys[1]}},
		{name: "author filter", query: search.Query{Terms: "deploy", From: "bob"}, want: []string{keys[0]}},
		{name: "language filter alone", query: search.Query{Lang: "fr"}, want: []string{keys[2]}},
		{name: "no match", query: search.Query{Terms: "kubernetes"}, want: nil},
		{name: "empty query", query: search.Query{}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			hits, err := index.Search(context.Background(), tt.query)
			req.NoError(err)
			req.ElementsMatch(tt.want, lo.Map(hits, func(h transcript.Hit, _ int) string { return h.Key }))
		})
	}
}

func TestTranscriptIndex_Limit(t *testing.T) {
	req := require.New(t)
	index := newMemoryIndex(t)
	now := time.Now().UTC()
	for i := 0; i < 7; i++ {
		indexAll(t, index, transcript.Entry{Author: "bob", Content: "standup now", At: now.Add(time.Duration(i) * time.Second)})
	}

	hits, err := index.Search(context.Background(), search.Query{Terms: "standup", Limit: 3})
	req.NoError(err)
	req.Len(hits, 3)
	for _, h := range hits {
		req.Positive(h.Score)
	}
}

func TestTranscriptIndex_UpdateReplacesDocument(t *testing.T) {
	req := require.New(t)
	index := newMemoryIndex(t)
	entry := transcript.Entry{ID: uuid.New(), Author: "bob", Content: "first draft", At: time.Now()}
	key := EntryKey(entry)

	req.NoError(index.Index(key, entry))
	entry.Content = "final version"
	req.NoError(index.Index(key, entry))

	hits, err := index.Search(context.Background(), search.Query{Terms: "draft"})
	req.NoError(err)
	req.Empty(hits)
	hits, err = index.Search(context.Background(), search.Query{Terms: "final"})
	req.NoError(err)
	req.Len(hits, 1)
}
