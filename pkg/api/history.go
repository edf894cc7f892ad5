package api

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// HistoryRecord is the flattened export of a completed run: the request
// fields plus whichever approval-outcome scalars were set during
// traversal. Records are appended to the history file and never mutated
// afterward
type HistoryRecord map[string]any

const (
	historyKeyRunID       = "run_id"
	historyKeyRequestID   = "request_id"
	historyKeyFinalNode   = "final_node"
	historyKeyCompletedAt = "completed_at"
)

// NewHistoryRecord flattens a completed run into a history record. Only
// scalar state values are carried; composite values are skipped
func NewHistoryRecord(st *RunState) HistoryRecord {
	res := make(HistoryRecord, len(st.State)+5)
	for k, v := range st.State {
		if isScalar(v) {
			res[string(k)] = v
		}
	}
	res[historyKeyRunID] = string(st.RunID)
	if st.FinalNode != "" {
		res[historyKeyFinalNode] = string(st.FinalNode)
	}
	if !st.CompletedAt.IsZero() {
		res[historyKeyCompletedAt] = st.CompletedAt.Format(time.RFC3339)
	}
	if src, ok := GetMetaString[string](st.Metadata, MetaSource); ok {
		res[MetaSource] = src
	}
	if id, ok := GetMetaString[string](st.Metadata, MetaBatchID); ok {
		res[MetaBatchID] = id
	}
	return res
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return true
	default:
		return false
	}
}

// RequestID returns the request the record was flattened from
func (r HistoryRecord) RequestID() RequestID {
	if id, ok := r[historyKeyRequestID].(string); ok {
		return RequestID(id)
	}
	return ""
}

// RunID returns the run that produced the record
func (r HistoryRecord) RunID() RunID {
	if id, ok := r[historyKeyRunID].(string); ok {
		return RunID(id)
	}
	return ""
}

// CompletedAt returns the completion timestamp, or the zero time when
// the record predates timestamping
func (r HistoryRecord) CompletedAt() time.Time {
	if raw, ok := r[historyKeyCompletedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// MarshalJSON encodes the record with sorted keys so history files stay
// stable across rewrites
func (r HistoryRecord) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
