// Package store persists the flat-file surface of the engine: approval
// requests, history records, and risk results, with a Redis alternative
// for each. Definition files (flow, rules, LLM providers) load through
// the Definitions registry, which supports hot reload
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/signoff/internal/config"
	"github.com/kode4food/signoff/pkg/api"
)

type (
	// RequestStore holds submitted requests awaiting a batch run
	RequestStore interface {
		Put(context.Context, *api.ApprovalRequest) error
		Get(context.Context, api.RequestID) (*api.ApprovalRequest, error)
		Pending(context.Context) ([]*api.ApprovalRequest, error)
	}

	// HistoryStore appends flattened records of completed runs and
	// answers request-scoped queries
	HistoryStore interface {
		Append(context.Context, api.Tenant, api.HistoryRecord) error
		Query(
			context.Context, api.Tenant, api.RequestID,
		) ([]api.HistoryRecord, error)
		All(context.Context, api.Tenant) ([]api.HistoryRecord, error)
	}

	// RiskStore appends risk evaluation records as runs produce them
	RiskStore interface {
		Append(context.Context, api.Tenant, *api.RiskRecord) error
		All(context.Context, api.Tenant) ([]*api.RiskRecord, error)
	}

	// Stores bundles the three run-facing stores behind one handle
	Stores struct {
		Requests RequestStore
		History  HistoryStore
		Risk     RiskStore
	}
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrUnknownBackend  = errors.New("unknown store backend")
)

// New selects a store backend from configuration. The file backend
// writes under the data directory; the redis backend shares the run
// store's connection settings
func New(cfg *config.Config) (*Stores, error) {
	switch cfg.StoreBackend {
	case "", BackendFile:
		return NewFileStores(cfg.DataDir), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RunStore.Addr,
			Password: cfg.RunStore.Password,
			DB:       cfg.RunStore.DB,
		})
		return NewRedisStores(client, cfg.RunStore.Prefix), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.StoreBackend)
	}
}
