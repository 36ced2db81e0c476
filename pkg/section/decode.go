package section

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// cleanJSON strips markdown fences and any prose around the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

var errNoJSON = errors.New("no JSON object in response")

// decodeContent parses an LLM answer into v.
func decodeContent(content string, v any) error {
	cleaned := cleanJSON(content)
	if !strings.HasPrefix(cleaned, "{") {
		return errNoJSON
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	return nil
}

// validator returns a ContentQuery.Validate func that checks content decodes into a fresh T.
func validator[T any]() func(string) error {
	return func(content string) error {
		var v T
		return decodeContent(content, &v)
	}
}

// mergeCitations appends extra to base, skipping blanks and duplicates.
func mergeCitations(base []string, extra ...[]string) []string {
	seen := make(map[string]bool, len(base))
	var out []string
	for _, list := range append([][]string{base}, extra...) {
		for _, u := range list {
			u = strings.TrimSpace(u)
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
