package main

import (
	"chat-stomp/domain/search"
	"chat-stomp/domain/transcript"
	"chat-stomp/infrastructure/storage"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Prints the local chat transcript, newest first, or the result of a search.
//
//	go run ./tools -db ./transcript -pages 2
//	go run ./tools -db ./transcript -search "deploy --from bob"
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to the transcript Badger DB")
	pages := flag.Int("pages", 1, "Number of pages to print")
	pageSize := flag.Int("page-size", storage.DefaultPageSize, "Entries per page")
	query := flag.String("search", "", "Search terms, with optional --from, --lang and --limit")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	logger := logs.GetLoggerFromLevel(slog.LevelWarn)
	repository := storage.NewTranscriptRepository(db, logger, *pageSize)

	var entries []transcript.Entry
	if *query != "" {
		entries, err = searchEntries(repository, logger, *query)
	} else {
		entries, err = readPages(repository, *pages)
	}
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Kind", "Author", "Target", "Lang", "Content"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, e := range entries {
		table.Append([]string{
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.Kind,
			e.Author,
			e.Target,
			e.Lang,
			strings.ReplaceAll(e.Content, "\n", " "),
		})
	}
	table.Render()
	fmt.Printf("%d entries\n", len(entries))
}

func readPages(repository *storage.TranscriptRepository, pages int) ([]transcript.Entry, error) {
	var all []transcript.Entry
	var cursor *string
	for i := 0; i < pages; i++ {
		entries, next, err := repository.GetEntries(cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
		if next == nil {
			break
		}
		cursor = next
	}
	return all, nil
}

// searchEntries rebuilds a throwaway in-memory index, so it works while the
// client holds the on-disk one.
func searchEntries(repository *storage.TranscriptRepository,
	logger *slog.Logger, raw string) ([]transcript.Entry, error) {
	writer, err := storage.OpenIndex("")
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	t := storage.NewTranscript(repository, storage.NewTranscriptIndex(writer, logger), logger)
	ctx := context.Background()
	if _, err := t.Rebuild(ctx); err != nil {
		return nil, err
	}
	return t.Search(ctx, *search.NewSearchQuery(raw))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
