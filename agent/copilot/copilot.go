// Package copilot is the model-backend seam used by the orchestrator. A
// Backend hands out Sessions; a Session may additionally publish events
// (Subscriber) or look responses up by id (ResponseFetcher).
package copilot

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ErrorPrefix marks a reply that carries a backend failure instead of model
// output. The orchestrator passes such replies through verbatim.
const ErrorPrefix = "[copilot error] "

type EventType string

const (
	EventMessageDelta EventType = "message_delta"
	EventMessageFinal EventType = "message_final"
	EventError        EventType = "error"
	EventIdle         EventType = "idle"
)

// Event is one notification from a session. RequestID ties it to the Send
// call that produced it.
type Event struct {
	Type      EventType
	RequestID string
	Text      string
}

// Terminal reports whether e ends a request.
func (e Event) Terminal() bool {
	return e.Type == EventMessageFinal || e.Type == EventError || e.Type == EventIdle
}

type Request struct {
	ID       string
	Messages []*schema.Message
}

// SendResult is what Send knows immediately. Event-driven sessions usually
// leave it empty.
type SendResult struct {
	Content    string
	ResponseID string
}

type Session interface {
	Send(ctx context.Context, req Request) (SendResult, error)
	Close() error
}

type Subscriber interface {
	Subscribe() (<-chan Event, func())
}

type ResponseFetcher interface {
	FetchResponse(ctx context.Context, responseID string) (string, error)
}

type Backend interface {
	CreateSession(ctx context.Context) (Session, error)
}
