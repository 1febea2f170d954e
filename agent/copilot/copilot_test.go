package copilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

type fakeChatModel struct {
	chunks  []string
	openErr error
	midErr  error
}

func (f *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(strings.Join(f.chunks, ""), nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	sr, sw := schema.Pipe[*schema.Message](len(f.chunks) + 1)
	go func() {
		defer sw.Close()
		for _, c := range f.chunks {
			sw.Send(schema.AssistantMessage(c, nil), nil)
		}
		if f.midErr != nil {
			sw.Send(nil, f.midErr)
		}
	}()
	return sr, nil
}

func collect(t *testing.T, events <-chan Event, requestID string) []Event {
	t.Helper()

	var out []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.RequestID != requestID {
				continue
			}
			out = append(out, e)
			if e.Type == EventIdle || e.Type == EventError {
				return out
			}
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %#v", out)
		}
	}
}

func TestStreamingSessionPublishesEvents(t *testing.T) {
	t.Parallel()

	backend, err := NewStreamingBackend(&fakeChatModel{chunks: []string{"Hel", "lo"}})
	if err != nil {
		t.Fatalf("NewStreamingBackend() error = %v", err)
	}
	session, err := backend.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	defer session.Close()

	sub, ok := session.(Subscriber)
	if !ok {
		t.Fatal("streaming session must be a Subscriber")
	}
	events, cancel := sub.Subscribe()
	defer cancel()

	res, err := session.Send(context.Background(), Request{ID: "r1", Messages: []*schema.Message{schema.UserMessage("hi")}})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Content != "" {
		t.Fatalf("streaming Send must not return content, got %q", res.Content)
	}

	got := collect(t, events, "r1")
	want := []Event{
		{Type: EventMessageDelta, RequestID: "r1", Text: "Hel"},
		{Type: EventMessageDelta, RequestID: "r1", Text: "lo"},
		{Type: EventMessageFinal, RequestID: "r1", Text: "Hello"},
		{Type: EventIdle, RequestID: "r1"},
	}
	if len(got) != len(want) {
		t.Fatalf("events = %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestStreamingSessionStreamError(t *testing.T) {
	t.Parallel()

	backend, _ := NewStreamingBackend(&fakeChatModel{chunks: []string{"partial"}, midErr: errors.New("connection reset")})
	session, _ := backend.CreateSession(context.Background())
	defer session.Close()

	events, cancel := session.(Subscriber).Subscribe()
	defer cancel()

	if _, err := session.Send(context.Background(), Request{ID: "r2"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got := collect(t, events, "r2")
	last := got[len(got)-1]
	if last.Type != EventError || !strings.Contains(last.Text, "connection reset") {
		t.Fatalf("unexpected last event: %#v", last)
	}
}

func TestStreamingSessionOpenError(t *testing.T) {
	t.Parallel()

	backend, _ := NewStreamingBackend(&fakeChatModel{openErr: errors.New("401")})
	session, _ := backend.CreateSession(context.Background())

	_, err := session.Send(context.Background(), Request{ID: "r3"})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestStreamingSessionRejectsSendAfterClose(t *testing.T) {
	t.Parallel()

	backend, _ := NewStreamingBackend(&fakeChatModel{})
	session, _ := backend.CreateSession(context.Background())
	if err := session.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := session.Send(context.Background(), Request{ID: "r4"}); err == nil {
		t.Fatal("expected error after Close")
	}
}

func TestNewStreamingBackendRequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := NewStreamingBackend(nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegistryCancelUnblocksTerminalEvents(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	_, cancel := r.Subscribe()
	for i := 0; i < subscriberBuffer+10; i++ {
		r.Notify(Event{Type: EventMessageDelta, RequestID: "x", Text: "d"})
	}

	done := make(chan struct{})
	go func() {
		r.Notify(Event{Type: EventIdle, RequestID: "x"})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("terminal notify stayed blocked after cancel")
	}
}

func completionJSON(id, content string) string {
	return fmt.Sprintf(`{"id":%q,"object":"chat.completion","created":1,"model":"test-model","choices":[{"index":0,"finish_reason":"stop","logprobs":null,"message":{"role":"assistant","content":%q,"refusal":null}}]}`, id, content)
}

func TestSyncSessionSendAndFetch(t *testing.T) {
	t.Parallel()

	var posted map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/chat/completions"):
			if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
				t.Errorf("decode request: %v", err)
			}
			fmt.Fprint(w, completionJSON("cmpl-1", "immediate"))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/chat/completions/cmpl-1"):
			fmt.Fprint(w, completionJSON("cmpl-1", "stored"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := openaisdk.NewClient(option.WithAPIKey("test"), option.WithBaseURL(server.URL+"/v1/"), option.WithMaxRetries(0))
	backend, err := NewSyncBackend(&client, SyncOptions{Model: "test-model", MaxCompletionTokens: 100})
	if err != nil {
		t.Fatalf("NewSyncBackend() error = %v", err)
	}
	session, _ := backend.CreateSession(context.Background())

	res, err := session.Send(context.Background(), Request{
		ID:       "req-1",
		Messages: []*schema.Message{schema.SystemMessage("be brief"), schema.UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Content != "immediate" || res.ResponseID != "cmpl-1" {
		t.Fatalf("unexpected send result: %#v", res)
	}
	if posted["store"] != true || posted["model"] != "test-model" {
		t.Fatalf("unexpected request body: %#v", posted)
	}
	if msgs, _ := posted["messages"].([]any); len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %#v", posted["messages"])
	}

	fetcher, ok := session.(ResponseFetcher)
	if !ok {
		t.Fatal("sync session must be a ResponseFetcher")
	}
	stored, err := fetcher.FetchResponse(context.Background(), "cmpl-1")
	if err != nil {
		t.Fatalf("FetchResponse() error = %v", err)
	}
	if stored != "stored" {
		t.Fatalf("FetchResponse() = %q", stored)
	}
}

func TestNewSyncBackendValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSyncBackend(nil, SyncOptions{Model: "m"}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil client, got %v", err)
	}
	client := openaisdk.NewClient(option.WithAPIKey("test"))
	if _, err := NewSyncBackend(&client, SyncOptions{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank model, got %v", err)
	}
}
