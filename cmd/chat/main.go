package main

import (
	"chat-stomp/auth"
	"chat-stomp/client"
	"chat-stomp/contract"
	"chat-stomp/domain/chat"
	"chat-stomp/domain/session"
	"chat-stomp/infrastructure/stomp"
	"chat-stomp/infrastructure/storage"
	"chat-stomp/internal"
	"chat-stomp/projection"
	"chat-stomp/runtime"
	"chat-stomp/runtime/workers"
	"chat-stomp/sink"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the shell.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 2 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat client terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and owns the client lifecycle, so deferred
// cleanup (Badger, Bluge) always runs before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return exitConfig, fmt.Errorf("loading .env: %w", err)
	}
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	username := config.Username
	if config.AccessToken != "" {
		claims, err := auth.DecodeAccessToken(config.AccessToken, time.Now())
		if err != nil {
			return exitConfig, err
		}
		if username == "" {
			username = claims.UserName
		}
		logger.Info("Access token loaded", "user", claims.UserName, "admin", claims.IsAdmin())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Local transcript (Badger + Bluge), opt-in
	var transcript contract.ITranscript
	if config.TranscriptEnabled() {
		db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
		if err != nil {
			return exitRuntime, fmt.Errorf("transcript opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		if logger.Enabled(ctx, slog.LevelDebug) && config.InspectPort > 0 {
			endpoint := "/inspect"
			logger.Info("Debug Badger inspector available",
				"url", fmt.Sprintf("http://localhost:%d%s", config.InspectPort, endpoint))
			database.StartDebugServer(db, config.InspectPort, endpoint, storage.InspectMapper)
		}

		blugeWriter, err := storage.OpenIndex(config.SearchIndexPath)
		if err != nil {
			return exitRuntime, err
		}
		defer func() {
			logger.Info("Closing Bluge...")
			_ = blugeWriter.Close()
		}()

		t, err := openTranscript(ctx, db, blugeWriter, config, logger)
		if err != nil {
			return exitRuntime, err
		}
		transcript = t
	}

	// 3. Session, transport, sinks
	machine := session.NewMachine(session.WithMaxContentLength(config.MaxContentLength))

	header := http.Header{}
	if config.AccessToken != "" {
		header.Set("Authorization", "Bearer "+config.AccessToken)
	}
	transport := stomp.NewClient(logger,
		stomp.WebSocketDialer(config.ServerURL, config.HandshakeTimeout, header),
		stomp.Options{
			Host:         config.StompHost,
			HeartBeat:    config.HeartBeat,
			AccessToken:  config.AccessToken,
			FetchHistory: config.FetchHistory,
			Trace:        config.StompTrace,
		})

	out := sink.NewLockedWriter(os.Stdout)
	view := projection.NewChatView(projection.DefaultMaxLines)
	var display contract.RenderSink = sink.NewConsoleSink(out, sink.ConsoleOptions{
		Color: !config.NoColor && color.SupportColor(),
		Debug: logger.Enabled(ctx, slog.LevelDebug),
	})
	if config.CensorEnabled {
		charReplacement, err := internal.CharacterRune(config.CensorCharacter)
		if err != nil {
			return exitConfig, err
		}
		moderator, err := runtime.LoadModerator(logger, charReplacement)
		if err != nil {
			return exitRuntime, fmt.Errorf("loading censor dictionary: %w", err)
		}
		display = sink.NewModeratedSink(display, moderator, logger)
	}

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(logger, sup, transport, machine, config.BufferSize, config.SinkTimeout)
	orchestrator.Add(view, display)
	if config.QueueCheck > 0 {
		orchestrator.MonitorQueues(config.QueueCheck, config.QueueWarnPercent)
	}
	if transcript != nil {
		orchestrator.Add(sink.NewTranscriptSink(transcript, logger))
	}

	quitCtx, quit := context.WithCancel(ctx)
	defer quit()
	console := client.NewConsole(out, view, transcript)
	orchestrator.AddWorkers(workers.NewConsoleInput(logger, os.Stdin, orchestrator, console, quit))

	// Workers outlive the signal so the session can still say goodbye.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	done := make(chan error, 1)
	go func() { done <- orchestrator.Start(runCtx) }()

	// 5. Interactive session
	console.PrintHelp()
	if username != "" {
		if err := orchestrator.Post(quitCtx, chat.RequestConnect{Username: username}); err != nil {
			logger.Warn("Auto-connect not posted", "error", err)
		}
	}

	<-quitCtx.Done()
	logger.Info("Shutting down gracefully...")
	disconnect(orchestrator, view, logger)

	orchestrator.Stop()
	cancelRun()
	if err := <-done; err != nil {
		return exitRuntime, err
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

// disconnect closes a live session and waits for the server to confirm.
func disconnect(orchestrator *runtime.Orchestrator, view *projection.ChatView, logger *slog.Logger) {
	if !view.Status().Connected {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := orchestrator.Post(ctx, chat.RequestDisconnect{}); err != nil {
		logger.Warn("Disconnect not posted", "error", err)
		return
	}
	if err := view.WaitStatus(ctx, false); err != nil {
		logger.Warn("Server did not confirm the disconnect", "error", err)
	}
}

func openTranscript(ctx context.Context, db *badger.DB, writer *bluge.Writer,
	config internal.Config, logger *slog.Logger) (*storage.Transcript, error) {
	transcript := storage.NewTranscript(
		storage.NewTranscriptRepository(db, logger, storage.DefaultPageSize),
		storage.NewTranscriptIndex(writer, logger),
		logger,
	)
	if config.SearchIndexPath == "" {
		// The in-memory index starts empty on every run.
		if _, err := transcript.Rebuild(ctx); err != nil {
			return nil, fmt.Errorf("rebuilding search index: %w", err)
		}
	}
	return transcript, nil
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.TranscriptPath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
