package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		reply = contractx.MsgUnparseable
	}
	return GraphOutput{Reply: reply}, nil
}
