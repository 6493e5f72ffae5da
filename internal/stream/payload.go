package stream

import (
	"encoding/json"
	"strings"
)

// NormalizePayload unwraps a payload the runtime JSON-encoded a second
// time, e.g. "{\"type\":\"agent_chunk\"}". Anything else, including a
// quoted payload that is not a valid string literal, is returned as is.
func NormalizePayload(payload string) string {
	if len(payload) < 2 || !strings.HasPrefix(payload, `"`) || !strings.HasSuffix(payload, `"`) {
		return payload
	}
	var unwrapped string
	if err := json.Unmarshal([]byte(payload), &unwrapped); err != nil {
		return payload
	}
	return unwrapped
}
