package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kode4food/signoff/internal/notify"
	"github.com/kode4food/signoff/internal/risk"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/kode4food/signoff/pkg/log"
)

// evalRisk scores the request outside the event command, then records
// the outcome. Only the result enters the trail; replaying a run never
// re-invokes the evaluator
func (w *walker) evalRisk(ctx context.Context, node *api.Node) error {
	history, err := w.applicantHistory(ctx)
	if err != nil {
		slog.Warn("Failed to summarize applicant history",
			log.RunID(w.runID),
			log.Error(err))
		history = risk.HistoryNone
	}

	evalCtx, cancel := context.WithTimeout(
		ctx, time.Duration(w.config.EvalTimeout)*time.Millisecond,
	)
	defer cancel()

	res, err := w.eval.Evaluate(evalCtx, risk.NewEvalContext(w.req, history))
	if err != nil {
		return err
	}
	res = w.defaultPath(res)

	if _, err := w.raise(ctx, api.EventTypeRiskEvaluated,
		api.RiskEvaluatedEvent{
			Result: res,
			RunID:  w.runID,
			NodeID: node.ID,
		},
	); err != nil {
		return err
	}

	record := api.NewRiskRecord(w.runID, w.flow.FlowID, node.ID, res, w.Now())
	if err := w.stores.Risk.Append(ctx, w.req.Tenant, record); err != nil {
		slog.Warn("Failed to persist risk record",
			log.RunID(w.runID),
			log.Error(err))
	}

	slog.Info("Risk evaluated",
		log.RunID(w.runID),
		slog.String("risk", string(res.Risk)),
		slog.String("recommend_path", res.RecommendPath))
	return nil
}

// defaultPath fills an empty recommended path from the rules' per-level
// routing. The result is copied, never mutated; evaluators may be
// serving it from a cache
func (w *walker) defaultPath(res *api.RiskResult) *api.RiskResult {
	if res.RecommendPath != "" {
		return res
	}
	path := w.rules.PathFor(res.Risk)
	if path == "" {
		return res
	}
	return &api.RiskResult{
		Risk:          res.Risk,
		RecommendPath: string(path),
		Suggestion:    res.Suggestion,
	}
}

// applicantHistory summarizes the requester's completed runs the way
// evaluator prompts expect
func (w *walker) applicantHistory(ctx context.Context) (string, error) {
	records, err := w.stores.History.All(ctx, w.req.Tenant)
	if err != nil {
		return "", err
	}

	total, rejected := 0, 0
	for _, rec := range records {
		if user, _ := rec[string(api.ArgUser)].(string); user != w.req.User {
			continue
		}
		total++
		if !recordApproved(rec) {
			rejected++
		}
	}
	return risk.HistorySummary(total, rejected), nil
}

func recordApproved(rec api.HistoryRecord) bool {
	for key, val := range rec {
		if !strings.HasSuffix(key, "_approved") {
			continue
		}
		if approved, ok := val.(bool); ok && !approved {
			return false
		}
	}
	return true
}

func (w *walker) takeBranch(
	ctx context.Context, node *api.Node, st *api.RunState,
) (api.NodeID, error) {
	for _, b := range node.Branches {
		matched, err := w.scripts.EvalBranch(b, st.State)
		if err != nil {
			return "", err
		}
		if !matched {
			continue
		}

		slog.Info("Branch taken",
			log.RunID(w.runID),
			log.NodeID(node.ID),
			slog.String("condition", b.Condition),
			slog.String("target", string(b.Next)))

		if _, err := w.raise(ctx, api.EventTypeBranchTaken,
			api.BranchTakenEvent{
				RunID:     w.runID,
				NodeID:    node.ID,
				Target:    b.Next,
				Condition: b.Condition,
			},
		); err != nil {
			return "", err
		}
		return b.Next, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoBranchMatched, node.ID)
}

// approve collects one decision per role. Countersign stages then
// record a combined outcome on the node, keyed the way branch
// conditions expect
func (w *walker) approve(
	ctx context.Context, node *api.Node, st *api.RunState,
) error {
	roles := node.ApprovalRoles()
	decisions := make([]*api.Decision, 0, len(roles))

	for _, role := range roles {
		decision, err := w.decide(ctx, node, role, st)
		if err != nil {
			return err
		}
		if _, err := w.raise(ctx, api.EventTypeDecisionRecorded,
			api.DecisionRecordedEvent{
				Decision: decision,
				Merged:   decision.ToArgs(),
				RunID:    w.runID,
				NodeID:   node.ID,
			},
		); err != nil {
			return err
		}

		if !decision.Approved && w.req.SimulateError == role {
			alert := notify.NewAlert(st, fmt.Sprintf(
				"%s审批节点异常：%s", RoleTitle(role), decision.Comment,
			))
			if err := w.queueNotification(ctx, node.ID, alert); err != nil {
				return err
			}
		}
		decisions = append(decisions, decision)
	}

	if len(decisions) > 1 {
		return w.countersign(ctx, node, decisions)
	}
	return nil
}

func (w *walker) decide(
	ctx context.Context, node *api.Node, role api.Role, st *api.RunState,
) (*api.Decision, error) {
	decision, err := w.decider.Decide(ctx, &DecisionRequest{
		Request:  w.req,
		State:    st.State,
		RunID:    w.runID,
		NodeID:   node.ID,
		Role:     role,
		Approver: w.rules.ApproverFor(role),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Decision recorded",
		log.RunID(w.runID),
		log.NodeID(node.ID),
		slog.String("role", string(role)),
		slog.String("approver", decision.Approver),
		slog.Bool("approved", decision.Approved))
	return decision, nil
}

func (w *walker) countersign(
	ctx context.Context, node *api.Node, decisions []*api.Decision,
) error {
	approved := api.Combine(node.CountersignMode(), decisions)
	names := make([]string, len(decisions))
	for i, d := range decisions {
		names[i] = d.Approver
	}

	comment := "会签通过"
	if !approved {
		comment = "会签未通过"
	}

	combined := &api.Decision{
		Role:      CountersignRole,
		Approver:  strings.Join(names, "、"),
		Approved:  approved,
		Comment:   comment,
		DecidedAt: w.Now(),
	}

	_, err := w.raise(ctx, api.EventTypeDecisionRecorded,
		api.DecisionRecordedEvent{
			Decision: combined,
			Merged: api.Args{
				api.Name(node.ID + "_approved"): approved,
			},
			RunID:  w.runID,
			NodeID: node.ID,
		},
	)
	return err
}

func (w *walker) notifyChannels(
	ctx context.Context, node *api.Node, st *api.RunState,
) error {
	for _, channel := range node.NotifyChannels() {
		msg := notify.ForChannel(st, channel)
		if err := w.queueNotification(ctx, node.ID, msg); err != nil {
			return err
		}
	}
	return nil
}

// queueNotification records the dispatch on the trail before handing
// the message to the delivery queue
func (w *walker) queueNotification(
	ctx context.Context, nodeID api.NodeID, msg *notify.Notification,
) error {
	if _, err := w.raise(ctx, api.EventTypeNotificationQueued,
		api.NotificationQueuedEvent{
			RunID:   w.runID,
			NodeID:  nodeID,
			Channel: msg.Channel,
		},
	); err != nil {
		return err
	}
	w.queue.Enqueue(msg)

	slog.Info("Notification queued",
		log.RunID(w.runID),
		log.NodeID(nodeID),
		log.Channel(msg.Channel))
	return nil
}

func (w *walker) complete(
	ctx context.Context, node *api.Node, st *api.RunState,
) error {
	if !runTransitions.CanTransition(st.Status, api.RunCompleted) {
		return fmt.Errorf("%w: %s -> %s",
			ErrInvalidTransition, st.Status, api.RunCompleted)
	}

	st, err := w.raise(ctx, api.EventTypeRunCompleted,
		api.RunCompletedEvent{
			RunID:       w.runID,
			FinalNode:   node.ID,
			CompletedAt: w.Now(),
		},
	)
	if err != nil {
		return err
	}

	record := api.NewHistoryRecord(st)
	if err := w.stores.History.Append(ctx, st.Tenant, record); err != nil {
		slog.Warn("Failed to append history record",
			log.RunID(w.runID),
			log.Error(err))
	}

	w.queue.Enqueue(notify.NewResultEmail(st))
	w.queue.Enqueue(notify.NewERPUpdate(st))

	w.snapshot(ctx)
	return nil
}
