package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kode4food/signoff/internal/risk"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/log"
)

type (
	// FlowCheck validates a flow definition beyond its structure, such
	// as compiling its branch conditions
	FlowCheck func(*api.Flow) error

	// Definitions holds the currently loaded definition files and swaps
	// them atomically on reload. A reload that fails validation keeps
	// the previous definition
	Definitions struct {
		dir       string
		check     FlowCheck
		mu        sync.RWMutex
		flow      *api.Flow
		rules     *api.Rules
		providers risk.Providers
	}
)

var (
	ErrFlowFileMissing = errors.New("flow definition file missing")
	ErrNoFlowLoaded    = errors.New("no flow loaded")
)

// NewDefinitions creates a definition registry rooted at dir. The check
// runs against every loaded flow; nil skips it
func NewDefinitions(dir string, check FlowCheck) *Definitions {
	return &Definitions{
		dir:   dir,
		check: check,
		rules: api.DefaultRules(),
	}
}

// Load reads all definition files. The flow file is required; missing
// rules or provider files fall back to defaults
func (d *Definitions) Load() error {
	if err := d.ReloadFlow(); err != nil {
		return err
	}
	if err := d.ReloadRules(); err != nil {
		return err
	}
	return d.ReloadProviders()
}

// Flow returns the loaded flow definition
func (d *Definitions) Flow() (*api.Flow, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.flow == nil {
		return nil, ErrNoFlowLoaded
	}
	return d.flow, nil
}

// Rules returns the loaded approval rules, defaults when no file exists
func (d *Definitions) Rules() *api.Rules {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rules
}

// Providers returns the per-tenant LLM provider mapping
func (d *Definitions) Providers() risk.Providers {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.providers
}

// Reload re-reads the definition the named file holds. Files that are
// not definitions are ignored
func (d *Definitions) Reload(name string) error {
	switch filepath.Base(name) {
	case FlowFile:
		return d.ReloadFlow()
	case RulesFile:
		return d.ReloadRules()
	case LLMFile:
		return d.ReloadProviders()
	default:
		return nil
	}
}

// ReloadFlow loads and validates the flow file, swapping it in only
// when valid
func (d *Definitions) ReloadFlow() error {
	flow, err := LoadFlow(filepath.Join(d.dir, FlowFile))
	if err != nil {
		return err
	}
	if d.check != nil {
		if err := d.check(flow); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.flow = flow
	d.mu.Unlock()

	slog.Info("Flow definition loaded",
		log.FlowID(flow.FlowID),
		slog.Int("nodes", len(flow.Nodes)))
	return nil
}

// ReloadRules loads the rules file, falling back to defaults when it
// does not exist
func (d *Definitions) ReloadRules() error {
	rules, err := LoadRules(filepath.Join(d.dir, RulesFile))
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.rules = rules
	d.mu.Unlock()
	return nil
}

// ReloadProviders loads the per-tenant LLM provider mapping, empty when
// the file does not exist
func (d *Definitions) ReloadProviders() error {
	providers, err := LoadProviders(filepath.Join(d.dir, LLMFile))
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.providers = providers
	d.mu.Unlock()
	return nil
}

// LoadFlow reads and validates a flow definition file
func LoadFlow(path string) (*api.Flow, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFlowFileMissing, path)
	}
	if err != nil {
		return nil, err
	}

	flow := &api.Flow{}
	if err := json.Unmarshal(data, flow); err != nil {
		return nil, fmt.Errorf(
			"failed to parse %s: %w", filepath.Base(path), err,
		)
	}
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	return flow, nil
}

// LoadRules reads and validates a rules file. A missing file yields the
// default rules
func LoadRules(path string) (*api.Rules, error) {
	rules := api.DefaultRules()
	if err := readJSON(path, rules); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadProviders reads the tenant-to-provider mapping. A missing file
// yields an empty mapping, routing every tenant to the default provider
func LoadProviders(path string) (risk.Providers, error) {
	providers := risk.Providers{}
	if err := readJSON(path, &providers); err != nil {
		return nil, err
	}
	for tenant, provider := range providers {
		switch provider {
		case risk.ProviderOpenAI, risk.ProviderDeepSeek:
		default:
			return nil, fmt.Errorf(
				"%w: %s (tenant %s)",
				risk.ErrUnknownProvider, provider, tenant,
			)
		}
	}
	return providers, nil
}
