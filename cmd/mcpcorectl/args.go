package main

import (
	"encoding/json"
	"fmt"
)

// parseToolArguments decodes a JSON object string into a tool argument
// map, treating an empty string the same as "{}".
func parseToolArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return args, nil
}
