package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entity names one of the three record collections.
type Entity string

const (
	EntityProperty  Entity = "property"
	EntityCommunity Entity = "community"
	EntityUser      Entity = "user"
)

// Entities lists every collection in display order.
var Entities = []Entity{EntityProperty, EntityCommunity, EntityUser}

// ParseEntity accepts singular or plural collection names.
func ParseEntity(s string) (Entity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "property", "properties":
		return EntityProperty, nil
	case "community", "communities":
		return EntityCommunity, nil
	case "user", "users":
		return EntityUser, nil
	}
	return "", fmt.Errorf("unknown entity %q", s)
}

// ApplyPatch merges patch into dst field by field, like an object spread.
func ApplyPatch(dst any, patch map[string]any) error {
	merged, err := ToMap(dst)
	if err != nil {
		return err
	}
	for k, v := range patch {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}
	if err := json.Unmarshal(out, dst); err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	return nil
}

// ToMap returns the JSON object form of v.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return m, nil
}

// FromMap decodes a JSON object into dst.
func FromMap(m map[string]any, dst any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return json.Unmarshal(raw, dst)
}
