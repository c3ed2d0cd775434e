// Package storage keeps the local transcript: Badger for the records and
// Bluge for the full-text index.
package storage

import (
	"chat-stomp/domain/transcript"
	"chat-stomp/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	entryPrefix      = "line:"
	DefaultPageSize  = 50
	newestCursorSeed = "9999999999999999999"
)

type TranscriptRepository struct {
	db       *badger.DB
	log      *slog.Logger
	pageSize int
	now      func() time.Time
}

func NewTranscriptRepository(db *badger.DB, log *slog.Logger, pageSize int) *TranscriptRepository {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &TranscriptRepository{db: db, log: log, pageSize: pageSize, now: time.Now}
}

// EntryKey formats "line:{unixnano}:{uuid}". The 19-digit padding keeps
// lexicographic order chronological and the uuid separates lines stamped
// in the same nanosecond.
func EntryKey(e transcript.Entry) string {
	nanos := e.At.UnixNano()
	if nanos < 0 {
		nanos = 0
	}
	return fmt.Sprintf("%s%019d:%s", entryPrefix, nanos, e.ID)
}

// StoreEntry persists the entry and returns its key. Missing IDs and times
// are filled in.
func (r *TranscriptRepository) StoreEntry(entry transcript.Entry) (string, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = r.now().UTC()
	}
	key := EntryKey(entry)
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), marshalEntry(entry))
	})
	if err != nil {
		return "", fmt.Errorf("storing transcript entry: %w", err)
	}
	return key, nil
}

// GetEntries pages backwards from the newest entry. Pass the returned cursor
// to get the next, older page; a nil cursor means there is nothing older.
func (r *TranscriptRepository) GetEntries(cursor *string) ([]transcript.Entry, *string, error) {
	var entries []transcript.Entry
	var lastKey string
	prefix := []byte(entryPrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append([]byte(entryPrefix), newestCursorSeed...)
		if cursor != nil {
			seekKey = append([]byte(entryPrefix), *cursor...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(entries) == r.pageSize {
				r.log.Debug(fmt.Sprintf("Maximum of %d entries reached", r.pageSize))
				return nil
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				entry, err := unmarshalEntry(value)
				if err != nil {
					return fmt.Errorf("key %s: %w", item.Key(), err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		lastKey = ""
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lastKey == "" {
		return entries, nil, nil
	}
	return entries, &lastKey, nil
}

func (r *TranscriptRepository) GetEntry(key string) (transcript.Entry, error) {
	var entry transcript.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			entry, err = unmarshalEntry(value)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return transcript.Entry{}, fmt.Errorf("%w: %s", errors.ErrEntryNotFound, key)
	}
	if err != nil {
		return transcript.Entry{}, err
	}
	return entry, nil
}
