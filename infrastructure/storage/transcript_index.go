package storage

import (
	"chat-stomp/domain/search"
	"chat-stomp/domain/transcript"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
)

const (
	fieldIndexContent = "content"
	fieldIndexAuthor  = "author"
	fieldIndexKind    = "kind"
	fieldIndexLang    = "lang"
	fieldIndexAt      = "at"
)

// TranscriptIndex is the full-text side of the transcript. Documents are
// keyed by the Badger key of the entry they describe.
type TranscriptIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewTranscriptIndex(writer *bluge.Writer, log *slog.Logger) *TranscriptIndex {
	return &TranscriptIndex{writer: writer, log: log}
}

// OpenIndex opens a Bluge index on disk, or in memory when path is empty.
func OpenIndex(path string) (*bluge.Writer, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	return writer, nil
}

func (i *TranscriptIndex) Index(key string, entry transcript.Entry) error {
	doc := bluge.NewDocument(key).
		AddField(bluge.NewTextField(fieldIndexContent, entry.Content)).
		AddField(bluge.NewKeywordField(fieldIndexAuthor, entry.Author)).
		AddField(bluge.NewKeywordField(fieldIndexKind, entry.Kind)).
		AddField(bluge.NewKeywordField(fieldIndexLang, entry.Lang)).
		AddField(bluge.NewDateTimeField(fieldIndexAt, entry.At).Sortable())

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing %s: %w", key, err)
	}
	return nil
}

// Search matches all the query terms against content, filtered by author and
// language. An empty query matches nothing.
func (i *TranscriptIndex) Search(ctx context.Context, query search.Query) ([]transcript.Hit, error) {
	q, ok := buildQuery(query)
	if !ok {
		return nil, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Closing index reader", "error", err)
		}
	}()

	request := bluge.NewTopNSearch(limit, q).SortBy([]string{"-_score", "-" + fieldIndexAt})
	start := time.Now()
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("searching transcript: %w", err)
	}

	var hits []transcript.Hit
	match, err := matches.Next()
	for err == nil && match != nil {
		hit := transcript.Hit{Score: match.Score}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				hit.Key = string(value)
				return false
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	i.log.Debug("Transcript search", "terms", query.Terms, "hits", len(hits), "took", time.Since(start))
	return hits, nil
}

func buildQuery(query search.Query) (bluge.Query, bool) {
	q := bluge.NewBooleanQuery()
	clauses := 0
	if terms := strings.TrimSpace(query.Terms); terms != "" {
		q.AddMust(bluge.NewMatchQuery(terms).
			SetField(fieldIndexContent).
			SetOperator(bluge.MatchQueryOperatorAnd))
		clauses++
	}
	if query.From != "" {
		q.AddMust(bluge.NewTermQuery(query.From).SetField(fieldIndexAuthor))
		clauses++
	}
	if query.Lang != "" {
		q.AddMust(bluge.NewTermQuery(query.Lang).SetField(fieldIndexLang))
		clauses++
	}
	return q, clauses > 0
}
