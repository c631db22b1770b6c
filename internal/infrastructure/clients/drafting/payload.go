package drafting

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// maxSearchDepth bounds how deep ExtractDraft looks for the draft payload
const maxSearchDepth = 8

// draftPayload is the schema a drafting service answers with
type draftPayload struct {
	Success  *bool   `json:"success"`
	Response *string `json:"response"`
}

func (p draftPayload) text() (string, bool) {
	if p.Success == nil || !*p.Success || p.Response == nil {
		return "", false
	}
	text := strings.TrimSpace(*p.Response)
	return text, text != ""
}

// ExtractDraft parses a drafting response and returns the draft text.
// The payload may be the whole document or nested inside a larger one;
// objects are searched breadth-first with keys in sorted order.
func ExtractDraft(raw []byte) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: malformed JSON: %v", ErrNoDraft, err)
	}

	level := []interface{}{doc}
	for depth := 0; depth <= maxSearchDepth && len(level) > 0; depth++ {
		var next []interface{}
		for _, node := range level {
			switch v := node.(type) {
			case map[string]interface{}:
				if text, ok := payloadFromObject(v); ok {
					return text, nil
				}
				keys := make([]string, 0, len(v))
				for k := range v {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					next = append(next, v[k])
				}
			case []interface{}:
				next = append(next, v...)
			}
		}
		level = next
	}

	return "", ErrNoDraft
}

func payloadFromObject(obj map[string]interface{}) (string, bool) {
	var p draftPayload
	if success, ok := obj["success"].(bool); ok {
		p.Success = &success
	}
	if response, ok := obj["response"].(string); ok {
		p.Response = &response
	}
	return p.text()
}
