package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kode4food/signoff/internal/notify"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/events"
	"github.com/kode4food/signoff/pkg/log"
)

// walker carries one run through its flow. All progress is raised as
// events on the run aggregate; the walker itself holds no mutable state
type walker struct {
	*Engine
	flow  *api.Flow
	nodes map[api.NodeID]*api.Node
	rules *api.Rules
	req   *api.ApprovalRequest
	meta  api.Metadata
	runID api.RunID
}

// NewRunID mints a unique run instance id
func NewRunID() api.RunID {
	return api.RunID("run-" + uuid.NewString())
}

// Run processes one approval request through a flow, advancing node by
// node until an end node or a failure. The returned result summarizes
// the run either way; a non-nil error reports why a failed run failed
func (e *Engine) Run(
	ctx context.Context, flow *api.Flow, req *api.ApprovalRequest,
) (*api.RunResult, error) {
	return e.RunWithMeta(ctx, flow, req, nil)
}

// RunWithMeta runs a request with caller-supplied metadata recorded on
// the run's start event and carried into its history record
func (e *Engine) RunWithMeta(
	ctx context.Context, flow *api.Flow, req *api.ApprovalRequest,
	meta api.Metadata,
) (*api.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	if err := e.scripts.ValidateFlow(flow); err != nil {
		return nil, err
	}

	w := &walker{
		Engine: e,
		flow:   flow,
		nodes:  flow.NodeMap(),
		rules:  e.rules(),
		req:    req,
		meta:   meta,
		runID:  NewRunID(),
	}
	return w.run(ctx)
}

func (w *walker) run(ctx context.Context) (*api.RunResult, error) {
	slog.Info("Run started",
		log.RunID(w.runID),
		log.FlowID(w.flow.FlowID),
		log.RequestID(w.req.RequestID),
		log.Tenant(w.req.Tenant))

	st, err := w.start(ctx)
	if err != nil {
		return nil, err
	}

	node := w.flow.Start()
	for steps := 0; ; steps++ {
		if steps >= w.config.MaxSteps {
			return w.fail(node.ID, fmt.Errorf(
				"%w: %d", ErrStepLimit, w.config.MaxSteps,
			))
		}
		if err := ctx.Err(); err != nil {
			return w.fail(node.ID, err)
		}

		if st, err = w.enter(ctx, node); err != nil {
			return w.fail(node.ID, err)
		}

		next, err := w.visit(ctx, node, st)
		if err != nil {
			return w.fail(node.ID, err)
		}
		if next == "" {
			break
		}

		target, ok := w.nodes[next]
		if !ok {
			return w.fail(node.ID, fmt.Errorf(
				"%w: %s -> %s", api.ErrUnknownNode, node.ID, next,
			))
		}
		node = target
	}

	if st, err = w.state(ctx); err != nil {
		return nil, err
	}

	slog.Info("Run completed",
		log.RunID(w.runID),
		log.Status(st.Status),
		log.NodeID(st.FinalNode))
	return st.Result(), nil
}

func (w *walker) start(ctx context.Context) (*api.RunState, error) {
	return w.execRun(ctx, events.RunKey(w.runID),
		func(st *api.RunState, ag *Aggregator) error {
			if st.Status != api.RunPending {
				return fmt.Errorf("%w: %s", ErrRunExists, w.runID)
			}
			return events.Raise(ag, api.EventTypeRunStarted,
				api.RunStartedEvent{
					Request:  w.req,
					Metadata: w.meta,
					RunID:    w.runID,
					FlowID:   w.flow.FlowID,
					Tenant:   w.req.Tenant,
				})
		},
	)
}

func (w *walker) enter(
	ctx context.Context, node *api.Node,
) (*api.RunState, error) {
	slog.Debug("Node entered",
		log.RunID(w.runID),
		log.NodeID(node.ID),
		slog.String("type", string(node.Type)))

	return w.raise(ctx, api.EventTypeNodeEntered, api.NodeEnteredEvent{
		RunID:  w.runID,
		NodeID: node.ID,
		Type:   node.Type,
	})
}

func (w *walker) visit(
	ctx context.Context, node *api.Node, st *api.RunState,
) (api.NodeID, error) {
	switch node.Type {
	case api.NodeTypeStart:
		return node.Next, nil
	case api.NodeTypeRiskEval:
		return node.Next, w.evalRisk(ctx, node)
	case api.NodeTypeBranch:
		return w.takeBranch(ctx, node, st)
	case api.NodeTypeApprove:
		return node.Next, w.approve(ctx, node, st)
	case api.NodeTypeNotify:
		return node.Next, w.notifyChannels(ctx, node, st)
	case api.NodeTypeEnd:
		return "", w.complete(ctx, node, st)
	default:
		return "", fmt.Errorf("%w: %s", api.ErrInvalidNodeType, node.Type)
	}
}

// fail records the failure on the run's trail with a context detached
// from the caller's, which may itself be what failed
func (w *walker) fail(
	nodeID api.NodeID, cause error,
) (*api.RunResult, error) {
	slog.Error("Run failed",
		log.RunID(w.runID),
		log.NodeID(nodeID),
		log.Error(cause))

	bg := context.Background()
	st, err := w.raise(bg, api.EventTypeRunFailed, api.RunFailedEvent{
		RunID:    w.runID,
		NodeID:   nodeID,
		Error:    cause.Error(),
		FailedAt: w.Now(),
	})
	if err != nil {
		return nil, errors.Join(cause, err)
	}

	w.queue.Enqueue(notify.NewAlert(st, fmt.Sprintf(
		"审批流程异常：%s", cause.Error(),
	)))
	w.snapshot(bg)
	return st.Result(), cause
}

func (w *walker) raise(
	ctx context.Context, eventType api.EventType, data any,
) (*api.RunState, error) {
	return w.raiseRunEvent(ctx, w.runID, eventType, data)
}

func (w *walker) state(ctx context.Context) (*api.RunState, error) {
	return w.execRun(ctx, events.RunKey(w.runID), noCommand)
}

func (w *walker) snapshot(ctx context.Context) {
	if err := w.runExec.SaveSnapshot(ctx, events.RunKey(w.runID)); err != nil {
		slog.Warn("Failed to save run snapshot",
			log.RunID(w.runID),
			log.Error(err))
	}
}
