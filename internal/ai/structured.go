package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateStructured runs one completion and decodes the reply into T.
// Models occasionally wrap JSON in markdown fences or prose; the decoder
// strips fences and falls back to the outermost JSON object. Anything
// still malformed is an error the caller treats as "no result".
func GenerateStructured[T any](ctx context.Context, c Client, tier Tier, system, user string) (*T, error) {
	raw, err := c.Complete(ctx, tier, system, user)
	if err != nil {
		return nil, err
	}

	payload := extractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var out T
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("malformed structured response: %w", err)
	}
	return &out, nil
}

func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}

	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
