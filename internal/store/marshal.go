package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/progression/internal/model"
)

// marshalInstances converts a quest instance list to JSON TEXT for storage.
// HTML escaping is disabled so descriptions round-trip byte for byte.
func marshalInstances(instances []model.QuestInstance) (string, error) {
	if instances == nil {
		instances = []model.QuestInstance{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(instances); err != nil {
		return "", fmt.Errorf("marshal instances: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalInstances parses JSON TEXT back into a quest instance list.
func unmarshalInstances(data string) ([]model.QuestInstance, error) {
	if data == "" || data == "[]" {
		return []model.QuestInstance{}, nil
	}
	var out []model.QuestInstance
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal instances: %w", err)
	}
	return out, nil
}
