package common

import (
	"fmt"
	"strings"
)

// ExtractJSON strips markdown code fences and locates the first JSON object in the input.
func ExtractJSON(input string) (string, error) {
	if strings.Contains(input, "```") {
		start := strings.Index(input, "```")
		end := strings.LastIndex(input, "```")
		if end > start {
			content := input[start+3 : end]
			if idx := strings.Index(content, "\n"); idx != -1 {
				if strings.Contains(strings.ToLower(content[:idx]), "json") {
					content = content[idx+1:]
				}
			}
			input = content
		}
	}

	start := strings.Index(input, "{")
	end := strings.LastIndex(input, "}")

	if start == -1 || end == -1 || start > end {
		return "", fmt.Errorf("no valid json object found")
	}

	return input[start : end+1], nil
}

// TruncateStr truncates a string to maxLen bytes, appending "..." if truncated.
func TruncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
