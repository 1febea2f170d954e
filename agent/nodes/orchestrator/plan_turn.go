package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	copilotx "github.com/tanpawarit/cloud-pricing-assistant/agent/copilot"
	planx "github.com/tanpawarit/cloud-pricing-assistant/agent/plan"
	promptx "github.com/tanpawarit/cloud-pricing-assistant/agent/prompt"
	toolx "github.com/tanpawarit/cloud-pricing-assistant/agent/tool"
)

func PlanTurn(
	ctx context.Context,
	in *GraphState,
	prompts promptx.PromptSet,
	respond Responder,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	tools, err := toolx.Signatures()
	if err != nil {
		return nil, err
	}
	msgs, err := prompts.PlannerMessages(ctx, tools, in.Text)
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

	p, err := planx.Parse(reply)
	if err != nil {
		log.Warn().Err(err).Msg("planner reply is not a plan")
		return in.finish(contractx.MsgUnparseable), nil
	}

	log.Debug().Str("action", string(p.Action)).Int("calls", len(p.Calls)).Msg("plan parsed")
	in.Plan = p
	return in, nil
}
