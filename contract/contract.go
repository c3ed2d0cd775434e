//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-stomp/domain/chat"
	"chat-stomp/domain/search"
	"chat-stomp/domain/transcript"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Inbox is the single entry point of the session loop.
// Post blocks until the input is queued or ctx is done.
type Inbox interface {
	Post(ctx context.Context, in chat.Input) error
}

// Transport carries the session over the network.
// Connect and Disconnect return immediately; their outcome is posted to the
// inbox as chat.Connected, chat.ConnectionFailed or chat.Disconnected.
type Transport interface {
	Connect(ctx context.Context, username string, inbox Inbox) error
	Send(ctx context.Context, cmd chat.OutboundCommand) error
	Disconnect(ctx context.Context) error
}

// RenderSink consumes render instructions in emission order.
type RenderSink interface {
	Consume(ctx context.Context, in chat.Instruction) error
}

type ITranscriptRepository interface {
	StoreEntry(entry transcript.Entry) (string, error)
	GetEntries(cursor *string) ([]transcript.Entry, *string, error)
	GetEntry(key string) (transcript.Entry, error)
}

type ITranscriptIndex interface {
	Index(key string, entry transcript.Entry) error
	Search(ctx context.Context, query search.Query) ([]transcript.Hit, error)
}

// ITranscript is the local chat record: storage plus search.
type ITranscript interface {
	Append(entry transcript.Entry) error
	Search(ctx context.Context, query search.Query) ([]transcript.Entry, error)
}
