package schema

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON extracts a JSON object from a response that may contain
// markdown fences or other wrapping text. It tries, in order: a fenced code
// block, the outermost brace span, and the raw input. The first candidate
// that parses as a JSON object wins.
func ExtractJSON(response string) (string, bool) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", false
	}

	if strings.Contains(response, "```") {
		if matches := fencedBlockRe.FindStringSubmatch(response); len(matches) > 1 {
			if candidate := strings.TrimSpace(matches[1]); isJSONObject(candidate) {
				return candidate, true
			}
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		if candidate := response[start : end+1]; isJSONObject(candidate) {
			return candidate, true
		}
	}

	if isJSONObject(response) {
		return response, true
	}
	return "", false
}

func isJSONObject(s string) bool {
	var value map[string]any
	return json.Unmarshal([]byte(s), &value) == nil
}
