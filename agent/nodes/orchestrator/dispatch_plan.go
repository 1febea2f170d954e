package orchestratornode

import (
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	planx "github.com/tanpawarit/cloud-pricing-assistant/agent/plan"
)

// DispatchPlan resolves ask and answer plans into a reply. A valid tool plan
// leaves the state open for execution.
func DispatchPlan(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if reply, ok := replyFor(in.Plan); ok {
		return in.finish(reply), nil
	}

	if in.Plan.Action == contractx.ActionCallTools && len(in.Plan.Calls) > 0 {
		for _, call := range in.Plan.Calls {
			if !contractx.IsAllowedTool(call.Name) {
				log.Warn().Str("tool", call.Name).Msg("plan requested a tool outside the allow-list")
				return in.finish(contractx.MsgToolNotAllowed), nil
			}
		}
		return in, nil
	}

	return in.finish(contractx.MsgNeedProviderRegion), nil
}

// replyFor handles the two plan shapes that answer directly.
func replyFor(p contractx.Plan) (string, bool) {
	switch p.Action {
	case contractx.ActionAsk:
		if q := planx.SanitizeQuestion(p.Question); q != "" {
			return q, true
		}
	case contractx.ActionAnswer:
		if content := p.Answer.Content(); content != "" {
			return content, true
		}
	}
	return "", false
}
