package storage

import (
	"chat-stomp/contract"
	"chat-stomp/domain/search"
	"chat-stomp/domain/transcript"
	"chat-stomp/errors"
	"context"
	"fmt"
	"log/slog"
)

// Transcript stores every entry in the repository and then indexes it.
type Transcript struct {
	repository contract.ITranscriptRepository
	index      contract.ITranscriptIndex
	log        *slog.Logger
}

func NewTranscript(repository contract.ITranscriptRepository, index contract.ITranscriptIndex, log *slog.Logger) *Transcript {
	return &Transcript{repository: repository, index: index, log: log}
}

func (t *Transcript) Append(entry transcript.Entry) error {
	key, err := t.repository.StoreEntry(entry)
	if err != nil {
		return err
	}
	// The index only needs the key back to find the stored record.
	return t.index.Index(key, entry)
}

// Search returns the stored entries matching query, best match first.
// Hits whose record has disappeared are skipped.
func (t *Transcript) Search(ctx context.Context, query search.Query) ([]transcript.Entry, error) {
	hits, err := t.index.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	entries := make([]transcript.Entry, 0, len(hits))
	for _, hit := range hits {
		entry, err := t.repository.GetEntry(hit.Key)
		if errors.Is(err, errors.ErrEntryNotFound) {
			t.log.Warn("Index points to a missing entry", "key", hit.Key)
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Rebuild indexes every stored entry again. It is used when the index lives
// in memory and the records survive restarts.
func (t *Transcript) Rebuild(ctx context.Context) (int, error) {
	var cursor *string
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		entries, next, err := t.repository.GetEntries(cursor)
		if err != nil {
			return count, fmt.Errorf("reading transcript page: %w", err)
		}
		for _, entry := range entries {
			if err := t.index.Index(EntryKey(entry), entry); err != nil {
				return count, err
			}
			count++
		}
		if next == nil {
			t.log.Info(fmt.Sprintf("%d transcript entries indexed", count))
			return count, nil
		}
		cursor = next
	}
}
