package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// StructToMap converts a struct into a map[string]any by round-tripping it
// through JSON, so `json` tags and omitempty behave exactly as they would on
// the wire. Nested objects are preserved as json.RawMessage rather than
// re-decoded maps.
//
// The input must be a struct or a non-nil pointer to one.
func StructToMap[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToMap: failed to marshal input record to JSON: %w", err)
	}

	var tempMap map[string]any
	if err := json.Unmarshal(jsonBytes, &tempMap); err != nil {
		return nil, fmt.Errorf("StructToMap: failed to unmarshal JSON to map[string]any: %w", err)
	}

	resultMap := make(map[string]any, len(tempMap))
	for key, value := range tempMap {
		if nested, ok := value.(map[string]any); ok {
			nestedBytes, err := json.Marshal(nested)
			if err != nil {
				return nil, fmt.Errorf("StructToMap: error re-marshaling nested map for key %q: %w", key, err)
			}
			resultMap[key] = json.RawMessage(nestedBytes)
		} else {
			resultMap[key] = value
		}
	}

	return resultMap, nil
}
