package storage

import (
	"strings"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders transcript records for the Badger debug inspector.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	if !strings.HasPrefix(key, entryPrefix) {
		return row
	}
	entry, err := unmarshalEntry(val)
	if err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	row.Type = strings.ToUpper(entry.Kind)
	row.Detail = entry.Content
	if entry.Author != "" {
		row.Detail = entry.Author + ": " + entry.Content
	}
	return row
}
