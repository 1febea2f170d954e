// Package plan decodes and tidies the planner model's JSON replies.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
)

// StripCodeFences removes a surrounding Markdown code fence, with or without
// a language tag. Text without a fence is returned trimmed.
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[\"") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the substring from the first '{' to the last '}'.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// Parse turns a model reply into a Plan. Field names match without regard to
// case. A missing action is inferred from whichever of question, answer or
// calls is present; an unknown action is kept so the caller can reject it.
func Parse(text string) (contractx.Plan, error) {
	body, ok := ExtractObject(StripCodeFences(text))
	if !ok {
		return contractx.Plan{}, fmt.Errorf("%w: no json object in reply", contractx.ErrSchemaViolation)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return contractx.Plan{}, fmt.Errorf("%w: decode plan: %v", contractx.ErrSchemaViolation, err)
	}

	var out contractx.Plan
	if raw, ok := field(fields, "action"); ok {
		var action string
		if err := json.Unmarshal(raw, &action); err != nil {
			return contractx.Plan{}, fmt.Errorf("%w: action must be a string", contractx.ErrSchemaViolation)
		}
		out.Action = normalizeAction(action)
	}

	if raw, ok := field(fields, "question"); ok {
		var q string
		if err := json.Unmarshal(raw, &q); err == nil {
			out.Question = strings.TrimSpace(q)
		}
	}

	if raw, ok := field(fields, "answer"); ok {
		out.Answer = decodeAnswer(raw)
	}

	if raw, ok := field(fields, "calls"); ok {
		calls, err := decodeCalls(raw)
		if err != nil {
			return contractx.Plan{}, err
		}
		out.Calls = calls
	}

	if out.Action == "" {
		out.Action = inferAction(out)
	}
	if out.Action == "" {
		return contractx.Plan{}, fmt.Errorf("%w: plan has no action", contractx.ErrSchemaViolation)
	}
	return out, nil
}

func normalizeAction(action string) contractx.Action {
	a := strings.ToLower(strings.TrimSpace(action))
	a = strings.NewReplacer("-", "_", " ", "_").Replace(a)
	switch a {
	case "ask", "ask_question", "askclarifyingquestion", "ask_clarifying_question", "clarify":
		return contractx.ActionAsk
	case "answer", "direct_answer", "directanswer":
		return contractx.ActionAnswer
	case "call_tools", "calltools", "tools", "tool_calls":
		return contractx.ActionCallTools
	default:
		return contractx.Action(a)
	}
}

func inferAction(p contractx.Plan) contractx.Action {
	switch {
	case p.Question != "":
		return contractx.ActionAsk
	case p.Answer != nil:
		return contractx.ActionAnswer
	case p.Calls != nil:
		return contractx.ActionCallTools
	default:
		return ""
	}
}

func field(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := fields[name]; ok {
		return raw, !isNull(raw)
	}
	for k, raw := range fields {
		if strings.EqualFold(k, name) {
			return raw, !isNull(raw)
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeAnswer prefers the structured shape and falls back to text.
func decodeAnswer(raw json.RawMessage) *contractx.AnswerPayload {
	trimmed := bytes.TrimSpace(raw)

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return &contractx.AnswerPayload{Text: text}
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var structured contractx.StructuredAnswer
		if err := json.Unmarshal(trimmed, &structured); err == nil {
			var compact bytes.Buffer
			if err := json.Compact(&compact, trimmed); err == nil {
				trimmed = compact.Bytes()
			}
			return &contractx.AnswerPayload{
				Structured: &structured,
				Raw:        json.RawMessage(trimmed),
			}
		}
	}

	return &contractx.AnswerPayload{Text: string(trimmed)}
}

func decodeCalls(raw json.RawMessage) ([]contractx.ToolCall, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: calls must be an array of objects: %v", contractx.ErrSchemaViolation, err)
	}

	calls := make([]contractx.ToolCall, 0, len(items))
	for i, item := range items {
		var call contractx.ToolCall
		if rawName, ok := field(item, "name"); ok {
			if err := json.Unmarshal(rawName, &call.Name); err != nil {
				return nil, fmt.Errorf("%w: calls[%d].name must be a string", contractx.ErrSchemaViolation, i)
			}
			call.Name = strings.TrimSpace(call.Name)
		}

		rawArgs, ok := field(item, "args")
		if !ok {
			rawArgs, ok = field(item, "arguments")
		}
		if ok {
			if err := json.Unmarshal(rawArgs, &call.Args); err != nil {
				return nil, fmt.Errorf("%w: calls[%d].args must be an object", contractx.ErrSchemaViolation, i)
			}
		}
		if call.Args == nil {
			call.Args = map[string]any{}
		}
		calls = append(calls, call)
	}
	return calls, nil
}
