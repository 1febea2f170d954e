package contract

import (
	"context"
	"encoding/json"
)

// ToolCaller invokes tools on the remote pricing service by their concrete names.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	ListTools(ctx context.Context) ([]ToolDefinition, error)
}

// ToolGateway executes one abstract, allow-listed tool call for a resolved provider.
type ToolGateway interface {
	Execute(ctx context.Context, provider string, call ToolCall) (any, error)
}
