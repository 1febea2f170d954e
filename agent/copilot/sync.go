package copilot

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

type SyncOptions struct {
	Model               string
	Temperature         float32
	MaxCompletionTokens int
}

// SyncBackend sends one blocking Chat Completions request per Send. Requests
// are stored server-side so a response can be looked up again by id.
type SyncBackend struct {
	client *openaisdk.Client
	opts   SyncOptions
}

var _ Backend = (*SyncBackend)(nil)

func NewSyncBackend(client *openaisdk.Client, opts SyncOptions) (*SyncBackend, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return &SyncBackend{client: client, opts: opts}, nil
}

func (b *SyncBackend) CreateSession(context.Context) (Session, error) {
	return &syncSession{client: b.client, opts: b.opts}, nil
}

type syncSession struct {
	client *openaisdk.Client
	opts   SyncOptions
}

var (
	_ Session         = (*syncSession)(nil)
	_ ResponseFetcher = (*syncSession)(nil)
)

func (s *syncSession) Send(ctx context.Context, req Request) (SendResult, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(strings.TrimSpace(s.opts.Model)),
		Messages: toChatMessages(req.Messages),
		Store:    openaisdk.Bool(true),
		Metadata: map[string]string{"request_id": req.ID},
	}
	if s.opts.Temperature > 0 {
		params.Temperature = openaisdk.Float(float64(s.opts.Temperature))
	}
	if s.opts.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(s.opts.MaxCompletionTokens))
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return SendResult{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	return SendResult{Content: firstChoice(resp), ResponseID: resp.ID}, nil
}

// FetchResponse reads a stored completion back by id.
func (s *syncSession) FetchResponse(ctx context.Context, responseID string) (string, error) {
	resp, err := s.client.Chat.Completions.Get(ctx, responseID)
	if err != nil {
		return "", fmt.Errorf("%w: fetch completion %s: %v", contractx.ErrModelInvoke, responseID, err)
	}
	return firstChoice(resp), nil
}

func (s *syncSession) Close() error { return nil }

func firstChoice(resp *openaisdk.ChatCompletion) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func toChatMessages(msgs []*schema.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case schema.Assistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}
	return out
}
