package contract

import (
	"encoding/json"
	"strings"
	"time"
)

type Action string

const (
	ActionAsk       Action = "ask"
	ActionAnswer    Action = "answer"
	ActionCallTools Action = "call_tools"
)

const (
	ToolListProviders    = "list_providers"
	ToolListFamilies     = "list_families"
	ToolSearchInstances  = "search_instances"
	ToolGetPricing       = "get_pricing"
	ToolCompareInstances = "compare_instances"
)

// AllowedTools is the only vocabulary the model may ask for, in prompt order.
var AllowedTools = []string{
	ToolListProviders,
	ToolListFamilies,
	ToolSearchInstances,
	ToolGetPricing,
	ToolCompareInstances,
}

// IsAllowedTool reports whether name is one of AllowedTools, ignoring case.
func IsAllowedTool(name string) bool {
	name = strings.TrimSpace(name)
	for _, allowed := range AllowedTools {
		if strings.EqualFold(allowed, name) {
			return true
		}
	}
	return false
}

// Plan is the model's decision for one turn. Exactly one of Question, Answer
// or Calls is meaningful, selected by Action.
type Plan struct {
	Action   Action         `json:"action"`
	Question string         `json:"question,omitempty"`
	Answer   *AnswerPayload `json:"answer,omitempty"`
	Calls    []ToolCall     `json:"calls,omitempty"`
}

type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// AnswerPayload is either free text or a structured answer object. Raw keeps
// the exact JSON the model produced for the structured form.
type AnswerPayload struct {
	Text       string
	Structured *StructuredAnswer
	Raw        json.RawMessage
}

type StructuredAnswer struct {
	Message           string          `json:"message"`
	Table             json.RawMessage `json:"table,omitempty"`
	ComparableOptions json.RawMessage `json:"comparable_options,omitempty"`
	Note              string          `json:"note,omitempty"`
}

// Content returns the user-facing form of the answer: the text for a free
// text answer, the raw JSON for a structured one.
func (a *AnswerPayload) Content() string {
	if a == nil {
		return ""
	}
	if a.Structured != nil && len(a.Raw) > 0 {
		return strings.TrimSpace(string(a.Raw))
	}
	return strings.TrimSpace(a.Text)
}

// ToolResult pairs an abstract tool name with whatever the router returned.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ToolCallLogEntry struct {
	Name          string        `json:"name"`
	ArgumentsJSON string        `json:"arguments_json"`
	Duration      time.Duration `json:"duration"`
	Timestamp     time.Time     `json:"timestamp"`
	Succeeded     bool          `json:"succeeded"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

type McpResultLogEntry struct {
	ToolName      string    `json:"tool_name"`
	RawResultJSON string    `json:"raw_result_json"`
	Timestamp     time.Time `json:"timestamp"`
}
