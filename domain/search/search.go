package search

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query represents the structured parameters of a transcript search.
// It decouples the raw console input from the index engine.
type Query struct {
	RawInput string // The original console line
	Terms    string // Free text matched against line content
	From     string // Exact author filter
	Lang     string // ISO 639-1 language filter
	Limit    int    // Number of results
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: /search deploy friday --from bob --lang en --limit 5
func NewSearchQuery(input string) *Query {
	query := &Query{
		RawInput: input,
		Limit:    DefaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --from bob or --limit 5
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "from":
				query.From = val
			case "lang":
				query.Lang = strings.ToLower(val)
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = min(n, MaxLimit)
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// The command word itself is not a search term
		if i == 0 && strings.HasPrefix(part, "/") {
			continue
		}
		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

// IsEmpty reports whether the query would match everything.
func (q *Query) IsEmpty() bool {
	return q.Terms == "" && q.From == "" && q.Lang == ""
}
