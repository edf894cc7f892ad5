package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kode4food/signoff/pkg/api"
)

// BatchResult pairs a request with the outcome of its run
type BatchResult struct {
	Request *api.ApprovalRequest
	Result  *api.RunResult
	Err     error
}

// RunBatch processes requests through a flow with a bounded worker
// pool. One request's failure never aborts the rest; results line up
// with the requests that produced them. Every run in the batch carries
// the same minted batch id in its metadata
func (e *Engine) RunBatch(
	ctx context.Context, flow *api.Flow, reqs []*api.ApprovalRequest,
) []*BatchResult {
	results := make([]*BatchResult, len(reqs))
	sem := make(chan struct{}, e.config.BatchWorkers)
	meta := api.Metadata{
		api.MetaSource:  "batch",
		api.MetaBatchID: uuid.NewString(),
	}
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Go(func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = &BatchResult{Request: req, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			res, err := e.RunWithMeta(ctx, flow, req, meta)
			results[i] = &BatchResult{Request: req, Result: res, Err: err}
		})
	}

	wg.Wait()
	return results
}

// Summarize counts batch outcomes by terminal status
func Summarize(results []*BatchResult) (completed, failed int) {
	for _, r := range results {
		if r.Err == nil && r.Result != nil &&
			r.Result.Status == api.RunCompleted {
			completed++
			continue
		}
		failed++
	}
	return completed, failed
}
