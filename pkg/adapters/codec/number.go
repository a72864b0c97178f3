package codec

import (
	"encoding/json"
	"fmt"
)

// Int reads an integer field whatever numeric type the codec decoded it as.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// Increment adds one to the integer field key, creating it when missing.
func Increment(doc map[string]any, key string) error {
	raw, ok := doc[key]
	if !ok {
		doc[key] = int64(1)
		return nil
	}
	n, ok := Int(raw)
	if !ok {
		return fmt.Errorf("field %q is not an integer: %v", key, raw)
	}
	doc[key] = n + 1
	return nil
}
