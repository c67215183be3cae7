package model

import "fmt"

// SanitizeMetadata coerces metadata into what the vector stores accept:
// scalar values only. Nils become empty strings, bools/numbers/strings pass
// through, everything else is stringified.
func SanitizeMetadata(md map[string]interface{}) map[string]interface{} {
	if md == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(md))
	for k, v := range md {
		switch tv := v.(type) {
		case nil:
			out[k] = ""
		case bool, string:
			out[k] = tv
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			out[k] = tv
		default:
			out[k] = fmt.Sprintf("%v", tv)
		}
	}
	return out
}

// MergeMetadata copies parent metadata and overlays extra keys on top.
func MergeMetadata(parent map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(parent)+len(extra))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
