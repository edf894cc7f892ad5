package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/signoff/pkg/api"
)

type (
	// RedisRequestStore keeps pending requests in a hash keyed by
	// request ID
	RedisRequestStore struct {
		client *redis.Client
		prefix string
	}

	// RedisHistoryStore appends history records to a per-tenant list
	RedisHistoryStore struct {
		client *redis.Client
		prefix string
	}

	// RedisRiskStore appends risk records to a per-tenant list
	RedisRiskStore struct {
		client *redis.Client
		prefix string
	}
)

// NewRedisStores builds the Redis-backed store bundle sharing one client
func NewRedisStores(client *redis.Client, prefix string) *Stores {
	return &Stores{
		Requests: &RedisRequestStore{client: client, prefix: prefix},
		History:  &RedisHistoryStore{client: client, prefix: prefix},
		Risk:     &RedisRiskStore{client: client, prefix: prefix},
	}
}

func redisKey(prefix, kind string, tenant api.Tenant) string {
	if tenant == "" {
		return fmt.Sprintf("%s:%s", prefix, kind)
	}
	return fmt.Sprintf("%s:%s:%s", prefix, kind, tenant)
}

// Put adds or replaces a pending request in the request hash
func (s *RedisRequestStore) Put(
	ctx context.Context, req *api.ApprovalRequest,
) error {
	if err := req.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshalRecord, err)
	}
	key := redisKey(s.prefix, "requests", "")
	return s.client.HSet(ctx, key, string(req.RequestID), data).Err()
}

// Get returns the pending request with the given ID
func (s *RedisRequestStore) Get(
	ctx context.Context, id api.RequestID,
) (*api.ApprovalRequest, error) {
	key := redisKey(s.prefix, "requests", "")
	data, err := s.client.HGet(ctx, key, string(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	req := &api.ApprovalRequest{}
	if err := json.Unmarshal([]byte(data), req); err != nil {
		return nil, err
	}
	return req, nil
}

// Pending returns all requests awaiting a run
func (s *RedisRequestStore) Pending(
	ctx context.Context,
) ([]*api.ApprovalRequest, error) {
	key := redisKey(s.prefix, "requests", "")
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	res := make([]*api.ApprovalRequest, 0, len(fields))
	for _, data := range fields {
		req := &api.ApprovalRequest{}
		if err := json.Unmarshal([]byte(data), req); err != nil {
			return nil, err
		}
		res = append(res, req)
	}
	return res, nil
}

// Append pushes a record onto the tenant's history list
func (s *RedisHistoryStore) Append(
	ctx context.Context, tenant api.Tenant, rec api.HistoryRecord,
) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshalRecord, err)
	}
	key := redisKey(s.prefix, "history", tenant)
	return s.client.RPush(ctx, key, data).Err()
}

// Query returns records for a request, oldest first
func (s *RedisHistoryStore) Query(
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
func (s *RedisHistoryStore) All(
	ctx context.Context, tenant api.Tenant,
) ([]api.HistoryRecord, error) {
	key := redisKey(s.prefix, "history", tenant)
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	res := make([]api.HistoryRecord, 0, len(items))
	for _, item := range items {
		rec := api.HistoryRecord{}
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// Append pushes a risk record onto the tenant's risk list
func (s *RedisRiskStore) Append(
	ctx context.Context, tenant api.Tenant, rec *api.RiskRecord,
) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshalRecord, err)
	}
	key := redisKey(s.prefix, "risk", tenant)
	return s.client.RPush(ctx, key, data).Err()
}

// All returns the tenant's risk records, oldest first
func (s *RedisRiskStore) All(
	ctx context.Context, tenant api.Tenant,
) ([]*api.RiskRecord, error) {
	key := redisKey(s.prefix, "risk", tenant)
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	res := make([]*api.RiskRecord, 0, len(items))
	for _, item := range items {
		rec := &api.RiskRecord{}
		if err := json.Unmarshal([]byte(item), rec); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}
