package services

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseNotification flattens a callback notification body to the fields that are signed.
//
// The body must be a flat JSON object. String values are used as is; numbers and booleans are kept
// as their JSON text and null counts as an empty value (so it is left out of the signed content).
// Nested objects and arrays are rejected.
func ParseNotification(body []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: notification is not a JSON object: %v", ErrInvalidRequest, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: notification is not a JSON object", ErrInvalidRequest)
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		switch {
		case len(v) == 0 || bytes.Equal(v, []byte("null")):
			fields[k] = ""
		case v[0] == '"':
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidRequest, k, err)
			}
			fields[k] = s
		case v[0] == '{' || v[0] == '[':
			return nil, fmt.Errorf("%w: field %q must be a string", ErrInvalidRequest, k)
		default:
			fields[k] = string(v)
		}
	}
	return fields, nil
}
