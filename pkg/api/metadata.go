package api

import "maps"

// Metadata contains additional context recorded on a run
type Metadata map[string]any

const (
	MetaSource   = "source"
	MetaBatchID  = "batch_id"
	MetaFlowFile = "flow_file"
)

// Apply merges the keys/values of the other metadata set into a copy of
// this one
func (m Metadata) Apply(other Metadata) Metadata {
	if len(other) == 0 {
		return m
	}
	if m == nil {
		return maps.Clone(other)
	}
	res := maps.Clone(m)
	maps.Copy(res, other)
	return res
}

func GetMetaString[T ~string](meta Metadata, key string) (T, bool) {
	var zero T
	val, ok := meta[key]
	if !ok {
		return zero, false
	}

	switch v := val.(type) {
	case T:
		if v == "" {
			return zero, false
		}
		return v, true
	case string:
		if v == "" {
			return zero, false
		}
		return T(v), true
	default:
		return zero, false
	}
}
