package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	statex "github.com/tanpawarit/cloud-pricing-assistant/agent/state"
)

const (
	methodToolsList = "tools/list"
	methodToolsCall = "tools/call"

	maxResponseSizeBytes = 4 << 20
)

type Config struct {
	URL      string        `envconfig:"URL" split_words:"true"`
	APIKey   string        `envconfig:"API_KEY" split_words:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" split_words:"true" default:"0s"`
	RedisURL string        `envconfig:"REDIS_URL" split_words:"true"`
}

var _ contractx.ToolCaller = (*Client)(nil)

// Client speaks JSON-RPC 2.0 to a remote MCP tool endpoint. It never retries.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	recorder   *statex.Recorder
	cache      CatalogCache
	newID      func() string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithRecorder(rec *statex.Recorder) Option {
	return func(c *Client) {
		if rec != nil {
			c.recorder = rec
		}
	}
}

func WithCatalogCache(cache CatalogCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient never fails on a missing URL; that surfaces as ErrConfig on the
// first call instead.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		url:        strings.TrimSpace(cfg.URL),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
		recorder:   statex.Default(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	return c.request(ctx, methodToolsCall, name, args, map[string]any{
		"name":      name,
		"arguments": args,
	}, nil)
}

func (c *Client) ListTools(ctx context.Context) ([]contractx.ToolDefinition, error) {
	if c.cache != nil {
		if tools, ok := c.cache.Get(ctx); ok {
			return tools, nil
		}
	}
	return c.fetchTools(ctx)
}

// Probe lists the remote catalog once, skipping any cached copy, and
// publishes the outcome to the connection status, including the advertised
// tool names.
func (c *Client) Probe(ctx context.Context) error {
	tools, err := c.fetchTools(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	c.recorder.Status().SetMCPTools(names)
	c.recorder.Status().SetMCP(true, "")
	return nil
}

// fetchTools always asks the server and refreshes the cache on success.
func (c *Client) fetchTools(ctx context.Context) ([]contractx.ToolDefinition, error) {
	var tools []contractx.ToolDefinition
	_, err := c.request(ctx, methodToolsList, methodToolsList, nil, nil, func(result json.RawMessage) error {
		var parsed struct {
			Tools []contractx.ToolDefinition `json:"tools"`
		}
		if err := json.Unmarshal(result, &parsed); err != nil {
			return fmt.Errorf("%w: decode tools/list result: %v", contractx.ErrMalformedResponse, err)
		}

		tools = make([]contractx.ToolDefinition, 0, len(parsed.Tools))
		for _, t := range parsed.Tools {
			name := strings.TrimSpace(t.Name)
			if name == "" {
				continue
			}
			tools = append(tools, contractx.ToolDefinition{
				Name:        name,
				Description: strings.TrimSpace(t.Description),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(ctx, tools)
	}
	return tools, nil
}

// request performs one JSON-RPC exchange and records it. decode, when set,
// runs before recording so a result that cannot be used counts as a failure.
func (c *Client) request(
	ctx context.Context,
	method, logName string,
	logArgs any,
	params any,
	decode func(json.RawMessage) error,
) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.roundTrip(ctx, method, params)
	if err == nil && decode != nil {
		err = decode(result)
	}
	duration := time.Since(start)

	entry := contractx.ToolCallLogEntry{
		Name:          logName,
		ArgumentsJSON: argumentsJSON(logArgs),
		Duration:      duration,
		Timestamp:     start.UTC(),
		Succeeded:     err == nil,
	}

	if err != nil {
		entry.ErrorMessage = err.Error()
		c.recorder.RecordCall(ctx, entry)
		c.recorder.Status().SetMCP(false, err.Error())
		log.Error().Err(err).
			Str("method", method).
			Str("tool", logName).
			Dur("duration", duration).
			Msg("mcp call failed")
		return nil, err
	}

	c.recorder.RecordCall(ctx, entry)
	if method == methodToolsCall {
		c.recorder.RecordResult(logName, result)
	}
	c.recorder.Status().SetMCP(true, "")
	log.Debug().
		Str("method", method).
		Str("tool", logName).
		Dur("duration", duration).
		Msg("mcp call completed")
	return result, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: mcp url is not configured", contractx.ErrConfig)
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.newID(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal %s request: %v", contractx.ErrValidation, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build %s request: %w", contractx.ErrTransport, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", contractx.ErrTransport, method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", contractx.ErrTransport, method, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s http status=%d body=%s", contractx.ErrTransport, method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	payload := raw
	if isEventStream(resp.Header.Get("Content-Type"), raw) {
		payload = []byte(ExtractEventStreamJSON(string(raw)))
	}

	return decodeEnvelope(method, payload)
}

func decodeEnvelope(method string, payload []byte) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: invalid %s response: %v", contractx.ErrTransport, method, err)
	}

	if rawErr, ok := envelope["error"]; ok && !isJSONNull(rawErr) {
		return nil, fmt.Errorf("%w: %s: %s", contractx.ErrProtocol, method, rpcErrorText(rawErr))
	}

	result, ok := envelope["result"]
	if !ok {
		return nil, fmt.Errorf("%w: %s response has no result", contractx.ErrMalformedResponse, method)
	}
	return result, nil
}

func rpcErrorText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var obj struct {
		Code    *int   `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Message) != "" {
		if obj.Code != nil {
			return fmt.Sprintf("%s (code %d)", strings.TrimSpace(obj.Message), *obj.Code)
		}
		return strings.TrimSpace(obj.Message)
	}
	return strings.TrimSpace(string(raw))
}

func isJSONNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func argumentsJSON(args any) string {
	if args == nil {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
