package orchestratornode

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	heuristicsx "github.com/tanpawarit/cloud-pricing-assistant/agent/heuristics"
)

var ErrInvalidMessage = errors.New("message is empty")

type GraphInput struct {
	Text string
}

type GraphOutput struct {
	Reply string
}

// GraphState is threaded through every node of one turn. Once Done is set the
// remaining nodes are skipped and Reply is returned.
type GraphState struct {
	Text string

	Plan    contractx.Plan
	Results []contractx.ToolResult

	Reply string
	Done  bool
}

func (s *GraphState) finish(reply string) *GraphState {
	s.Reply = reply
	s.Done = true
	return s
}

// Responder runs one model round. Backend failures are returned as reply text
// starting with copilot.ErrorPrefix; a missed deadline is ErrResponseTimeout.
type Responder func(ctx context.Context, msgs []*schema.Message) (string, error)

// ValidateRequest rejects blank input and ends the turn early when a pricing
// question names no region.
func ValidateRequest(in GraphInput) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	st := &GraphState{Text: text}
	if heuristicsx.NeedsRegion(text) {
		return st.finish(contractx.MsgClarifyRegion), nil
	}
	return st, nil
}
