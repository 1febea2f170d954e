package copilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

var errSessionClosed = errors.New("session is closed")

// StreamingBackend drives an eino chat model in streaming mode and reports
// progress as events.
type StreamingBackend struct {
	model model.BaseChatModel
}

var _ Backend = (*StreamingBackend)(nil)

func NewStreamingBackend(m model.BaseChatModel) (*StreamingBackend, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: chat model is nil", contractx.ErrValidation)
	}
	return &StreamingBackend{model: m}, nil
}

func (b *StreamingBackend) CreateSession(context.Context) (Session, error) {
	return &streamSession{model: b.model, events: newRegistry()}, nil
}

type streamSession struct {
	model  model.BaseChatModel
	events *registry

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var (
	_ Session    = (*streamSession)(nil)
	_ Subscriber = (*streamSession)(nil)
)

func (s *streamSession) Subscribe() (<-chan Event, func()) {
	return s.events.Subscribe()
}

// Send opens the model stream and returns as soon as it is open. Output
// arrives as events tagged with req.ID.
func (s *streamSession) Send(ctx context.Context, req Request) (SendResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SendResult{}, errSessionClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	stream, err := s.model.Stream(ctx, req.Messages)
	if err != nil {
		s.wg.Done()
		return SendResult{}, fmt.Errorf("%w: open stream: %v", contractx.ErrModelInvoke, err)
	}

	go func() {
		defer s.wg.Done()
		s.pump(req.ID, stream)
	}()
	return SendResult{}, nil
}

func (s *streamSession) pump(requestID string, stream *schema.StreamReader[*schema.Message]) {
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			s.events.Notify(Event{Type: EventMessageFinal, RequestID: requestID, Text: sb.String()})
			s.events.Notify(Event{Type: EventIdle, RequestID: requestID})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("request_id", requestID).Msg("model stream failed")
			s.events.Notify(Event{Type: EventError, RequestID: requestID, Text: err.Error()})
			return
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		sb.WriteString(chunk.Content)
		s.events.Notify(Event{Type: EventMessageDelta, RequestID: requestID, Text: chunk.Content})
	}
}

// Close rejects further sends and waits for open streams to drain.
func (s *streamSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
