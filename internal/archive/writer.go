package archive

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kode4food/timebox"
	"gocloud.dev/blob"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// Writer ships staged run archives to a blob bucket, one JSON
	// object per run
	Writer struct {
		bucket BucketWriter
		prefix string
	}

	// BucketWriter is the slice of the blob API the writer needs
	BucketWriter interface {
		WriteAll(context.Context, string, []byte, *blob.WriterOptions) error
	}

	// runArchive is the object written to the bucket: the run's raw
	// event trail and snapshot, plus a flattened summary so reports can
	// scan archives without replaying events
	runArchive struct {
		StreamID         string            `json:"stream_id"`
		AggregateID      string            `json:"aggregate_id"`
		SnapshotSequence int64             `json:"snapshot_sequence"`
		SnapshotData     json.RawMessage   `json:"snapshot_data,omitempty"`
		Events           []json.RawMessage `json:"events,omitempty"`
		Summary          api.HistoryRecord `json:"summary,omitempty"`
	}
)

var (
	ErrBucketRequired = errors.New("bucket is required")
	ErrRecordRequired = errors.New("archive record is required")
)

// NewWriter creates a writer that stores archives under the given key
// prefix
func NewWriter(bucket BucketWriter, prefix string) (*Writer, error) {
	if bucket == nil {
		return nil, ErrBucketRequired
	}
	return &Writer{
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Write persists one staged archive record to the bucket
func (w *Writer) Write(
	ctx context.Context, rec *timebox.ArchiveRecord,
) error {
	if rec == nil {
		return ErrRecordRequired
	}

	obj := runArchive{
		StreamID:         rec.StreamID,
		AggregateID:      rec.AggregateID.Join(":"),
		SnapshotSequence: rec.SnapshotSequence,
		SnapshotData:     normalizeRaw(rec.SnapshotData),
		Events:           normalizeRawSlice(rec.Events),
		Summary:          summarize(rec.SnapshotData),
	}

	data, err := json.Marshal(&obj)
	if err != nil {
		return err
	}
	return w.bucket.WriteAll(ctx, archiveKey(w.prefix, rec.AggregateID),
		data, nil)
}

// summarize flattens an archived run snapshot into a history-style
// record. Archives written before a snapshot was taken carry no summary
func summarize(data json.RawMessage) api.HistoryRecord {
	if len(data) == 0 {
		return nil
	}
	st := &api.RunState{}
	if err := json.Unmarshal(data, st); err != nil || st.RunID == "" {
		return nil
	}
	return api.NewHistoryRecord(st)
}

func archiveKey(prefix string, id timebox.AggregateID) string {
	if prefix == "" {
		return id.Join("/") + ".json"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + id.Join("/") + ".json"
}

func normalizeRaw(msg json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(msg))) == 0 {
		return nil
	}
	return msg
}

func normalizeRawSlice(msgs []json.RawMessage) []json.RawMessage {
	res := make([]json.RawMessage, 0, len(msgs))
	for _, msg := range msgs {
		if m := normalizeRaw(msg); m != nil {
			res = append(res, m)
		}
	}
	if len(res) == 0 {
		return nil
	}
	return res
}
