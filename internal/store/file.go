package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// FileRequestStore keeps pending requests in requests.json
	FileRequestStore struct {
		dir string
		mu  sync.Mutex
	}

	// FileHistoryStore appends completed-run records to history.json,
	// one file per tenant
	FileHistoryStore struct {
		dir string
		mu  sync.Mutex
	}

	// FileRiskStore appends risk evaluations to risk_result.json, one
	// file per tenant
	FileRiskStore struct {
		dir string
		mu  sync.Mutex
	}
)

// Data file names. Tenant-scoped files insert the tenant before the
// extension, so tenant acme reads history_acme.json
const (
	FlowFile     = "flow.json"
	RulesFile    = "rules.json"
	LLMFile      = "llm_config.json"
	RequestsFile = "requests.json"
	HistoryFile  = "history.json"
	RiskFile     = "risk_result.json"
)

var ErrMarshalRecord = errors.New("failed to marshal record")

// NewFileStores builds the file-backed store bundle rooted at dir
func NewFileStores(dir string) *Stores {
	return &Stores{
		Requests: &FileRequestStore{dir: dir},
		History:  &FileHistoryStore{dir: dir},
		Risk:     &FileRiskStore{dir: dir},
	}
}

// DataFile resolves a data file name for a tenant
func DataFile(dir, name string, tenant api.Tenant) string {
	if tenant == "" {
		return filepath.Join(dir, name)
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, tenant, ext))
}

// Put adds or replaces a pending request, keyed by request ID
func (s *FileRequestStore) Put(
	_ context.Context, req *api.ApprovalRequest,
) error {
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, RequestsFile)
	var reqs []*api.ApprovalRequest
	if err := readJSON(path, &reqs); err != nil {
		return err
	}

	replaced := false
	for i, r := range reqs {
		if r.RequestID == req.RequestID {
			reqs[i] = req
			replaced = true
			break
		}
	}
	if !replaced {
		reqs = append(reqs, req)
	}
	return writeJSON(path, reqs)
}

// Get returns the pending request with the given ID
func (s *FileRequestStore) Get(
	ctx context.Context, id api.RequestID,
) (*api.ApprovalRequest, error) {
	reqs, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range reqs {
		if r.RequestID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
}

// Pending returns all requests awaiting a run. A missing file reads as
// no requests
func (s *FileRequestStore) Pending(
	_ context.Context,
) ([]*api.ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reqs []*api.ApprovalRequest
	if err := readJSON(filepath.Join(s.dir, RequestsFile), &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Append adds a record to the tenant's history file
func (s *FileHistoryStore) Append(
	_ context.Context, tenant api.Tenant, rec api.HistoryRecord,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := DataFile(s.dir, HistoryFile, tenant)
	var records []api.HistoryRecord
	if err := readJSON(path, &records); err != nil {
		return err
	}
	records = append(records, rec)
	return writeJSON(path, records)
}

// Query returns records for a request, oldest first
func (s *FileHistoryStore) Query(
	ctx context.Context, tenant api.Tenant, id api.RequestID,
) ([]api.HistoryRecord, error) {
	records, err := s.All(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var res []api.HistoryRecord
	for _, rec := range records {
		if rec.RequestID() == id {
			res = append(res, rec)
		}
	}
	return res, nil
}

// All returns the tenant's full history, oldest first
func (s *FileHistoryStore) All(
	_ context.Context, tenant api.Tenant,
) ([]api.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []api.HistoryRecord
	path := DataFile(s.dir, HistoryFile, tenant)
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Append adds a risk record to the tenant's risk results file
func (s *FileRiskStore) Append(
	_ context.Context, tenant api.Tenant, rec *api.RiskRecord,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := DataFile(s.dir, RiskFile, tenant)
	var records []*api.RiskRecord
	if err := readJSON(path, &records); err != nil {
		return err
	}
	records = append(records, rec)
	return writeJSON(path, records)
}

// All returns the tenant's risk records, oldest first
func (s *FileRiskStore) All(
	_ context.Context, tenant api.Tenant,
) ([]*api.RiskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*api.RiskRecord
	path := DataFile(s.dir, RiskFile, tenant)
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// readJSON decodes a JSON file into v. A missing file leaves v untouched
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes v to path atomically via a temp file rename
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshalRecord, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".signoff-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	ok := false
	defer func() {
		if !ok {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	ok = true
	return nil
}
