package mcp

import "strings"

const eventStreamDone = "[DONE]"

func isEventStream(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/event-stream") {
		return true
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "data:") || strings.HasPrefix(trimmed, "event:")
}

// ExtractEventStreamJSON unwraps a text/event-stream payload. It returns the
// first frame that looks like JSON, else the first frame, else the payload.
func ExtractEventStreamJSON(payload string) string {
	frames := splitEventStreamFrames(payload)
	if len(frames) == 0 {
		return payload
	}
	for _, frame := range frames {
		trimmed := strings.TrimSpace(frame)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return trimmed
		}
	}
	return frames[0]
}

// splitEventStreamFrames builds one frame per blank-line-delimited block from
// its data: lines, dropping [DONE] sentinels.
func splitEventStreamFrames(payload string) []string {
	normalized := strings.ReplaceAll(payload, "\r\n", "\n")

	var frames []string
	for _, block := range strings.Split(normalized, "\n\n") {
		var data []string
		for _, line := range strings.Split(block, "\n") {
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			value := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if strings.TrimSpace(value) == eventStreamDone {
				continue
			}
			data = append(data, value)
		}
		if len(data) == 0 {
			continue
		}
		frames = append(frames, strings.Join(data, "\n"))
	}
	return frames
}
