package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

func TestPlannerMessages(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	msgs, err := set.PlannerMessages(context.Background(), []string{"list_providers(): list", "get_pricing(provider, instanceType, region): price"}, "price of m5.large in us-east-1")
	if err != nil {
		t.Fatalf("PlannerMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != schema.System || msgs[1].Role != schema.User {
		t.Fatalf("unexpected messages: %#v", msgs)
	}

	system := msgs[0].Content
	for _, want := range []string{"- list_providers(): list", "- get_pricing(provider, instanceType, region): price", "on-demand", "linux", `{"action":"ask"`} {
		if !strings.Contains(system, want) {
			t.Fatalf("system prompt is missing %q:\n%s", want, system)
		}
	}
	if msgs[1].Content != "price of m5.large in us-east-1" {
		t.Fatalf("user message = %q", msgs[1].Content)
	}
}

func TestAnswerMessagesEmbedsResults(t *testing.T) {
	t.Parallel()

	msgs, err := LoadPromptSet().AnswerMessages(context.Background(), "compare a and b", `[{"tool":"compare_instances","result":{"region":"us-east-1"}}]`)
	if err != nil {
		t.Fatalf("AnswerMessages() error = %v", err)
	}
	if !strings.Contains(msgs[0].Content, `[{"tool":"compare_instances","result":{"region":"us-east-1"}}]`) {
		t.Fatalf("tool results not embedded:\n%s", msgs[0].Content)
	}
	if !strings.Contains(msgs[0].Content, "ONLY") {
		t.Fatal("answer prompt lost its grounding rule")
	}
}

func TestMissingTemplate(t *testing.T) {
	t.Parallel()

	var empty PromptSet
	if _, err := empty.PlannerMessages(context.Background(), nil, "hi"); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
	if _, err := empty.AnswerMessages(context.Background(), "hi", "[]"); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
