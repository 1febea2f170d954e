package orchestratornode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	heuristicsx "github.com/tanpawarit/cloud-pricing-assistant/agent/heuristics"
	toolx "github.com/tanpawarit/cloud-pricing-assistant/agent/tool"
)

// ExecuteTools runs the planned calls in order. The first failure ends the
// turn with a fixed message and no partial results, unless ctx is done, in
// which case its error is returned.
func ExecuteTools(
	ctx context.Context,
	in *GraphState,
	tools contractx.ToolGateway,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	results := make([]contractx.ToolResult, 0, len(in.Plan.Calls))
	for _, call := range in.Plan.Calls {
		provider := resolveProvider(call.Args, in.Text)
		name := strings.ToLower(strings.TrimSpace(call.Name))

		start := time.Now()
		result, err := tools.Execute(ctx, provider, call)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Error().Err(err).
				Str("tool", name).
				Str("provider", provider).
				Dur("duration", time.Since(start)).
				Msg("tool execution failed")
			return in.finish(contractx.MsgToolFailure), nil
		}

		log.Debug().
			Str("tool", name).
			Str("provider", provider).
			Dur("duration", time.Since(start)).
			Msg("tool executed")
		results = append(results, contractx.ToolResult{Tool: name, Result: result})
	}

	in.Results = results
	return in, nil
}

func resolveProvider(args map[string]any, text string) string {
	if v := toolx.StringArg(args, "provider"); v != "" {
		return v
	}
	return heuristicsx.ProviderFromText(text)
}
