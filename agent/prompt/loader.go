package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

var (
	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/answer.txt
	answerRaw string
)

const (
	varTools       = "tools"
	varUserMessage = "user_message"
	varToolResults = "tool_results"
)

// PromptSet holds the compiled chat templates for both model rounds.
type PromptSet struct {
	Planner einoprompt.ChatTemplate
	Answer  einoprompt.ChatTemplate
}

// LoadPromptSet builds the templates from the embedded text. Templates use Go
// template syntax so literal JSON braces in the examples stay untouched.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Planner: newTemplate(plannerRaw),
		Answer:  newTemplate(answerRaw),
	}
}

func newTemplate(system string) einoprompt.ChatTemplate {
	return einoprompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(strings.TrimSpace(system)),
		schema.UserMessage("{{."+varUserMessage+"}}"),
	)
}

// PlannerMessages renders the planning round for userText.
func (p PromptSet) PlannerMessages(ctx context.Context, tools []string, userText string) ([]*schema.Message, error) {
	if p.Planner == nil {
		return nil, fmt.Errorf("%w: planner", contractx.ErrPromptMissing)
	}
	return p.Planner.Format(ctx, map[string]any{
		varTools:       tools,
		varUserMessage: userText,
	})
}

// AnswerMessages renders the answering round with the serialized tool results.
func (p PromptSet) AnswerMessages(ctx context.Context, userText, toolResultsJSON string) ([]*schema.Message, error) {
	if p.Answer == nil {
		return nil, fmt.Errorf("%w: answer", contractx.ErrPromptMissing)
	}
	return p.Answer.Format(ctx, map[string]any{
		varUserMessage: userText,
		varToolResults: toolResultsJSON,
	})
}
