package orchestratornode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	copilotx "github.com/tanpawarit/cloud-pricing-assistant/agent/copilot"
	planx "github.com/tanpawarit/cloud-pricing-assistant/agent/plan"
	promptx "github.com/tanpawarit/cloud-pricing-assistant/agent/prompt"
)

// AnswerTurn asks the model to phrase the tool results. A tool plan in this
// round is not executed; at most one tool round runs per turn.
func AnswerTurn(
	ctx context.Context,
	in *GraphState,
	prompts promptx.PromptSet,
	respond Responder,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	results, err := json.Marshal(in.Results)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal tool results: %v", contractx.ErrValidation, err)
	}

	msgs, err := prompts.AnswerMessages(ctx, in.Text, string(results))
	if err != nil {
		return nil, err
	}

	reply, err := respond(ctx, msgs)
	if errors.Is(err, contractx.ErrResponseTimeout) {
		return in.finish(contractx.MsgTimeout), nil
	}
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(reply, copilotx.ErrorPrefix) {
		return in.finish(reply), nil
	}

	if p, err := planx.Parse(reply); err == nil {
		if text, ok := replyFor(p); ok {
			return in.finish(text), nil
		}
	}
	return in.finish(planx.StripCodeFences(reply)), nil
}
