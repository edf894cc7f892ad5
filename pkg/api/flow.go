package api

import (
	"errors"
	"fmt"

	"github.com/kode4food/signoff/pkg/util"
)

type (
	// NodeType discriminates the behavior of a flow node
	NodeType string

	// Channel names a notification integration
	Channel string

	// DecisionMode controls how countersign approvals combine
	DecisionMode string

	// Flow is a complete approval flow definition, loaded from flow.json
	// and immutable during execution
	Flow struct {
		FlowID FlowID  `json:"flow_id"`
		Nodes  []*Node `json:"nodes"`
	}

	// Node is a single step in an approval flow
	Node struct {
		ID        NodeID       `json:"id"`
		Type      NodeType     `json:"type"`
		Next      NodeID       `json:"next,omitempty"`
		Branches  []*Branch    `json:"branches,omitempty"`
		Role      Role         `json:"role,omitempty"`
		Approvers []Role       `json:"approvers,omitempty"`
		Mode      DecisionMode `json:"mode,omitempty"`
		Channels  []Channel    `json:"channels,omitempty"`
	}

	// Branch is a conditional edge out of a branch node. Conditions are
	// compiled and evaluated in a sandboxed language, never interpreted as
	// raw host code
	Branch struct {
		Condition string `json:"condition"`
		Language  string `json:"language,omitempty"`
		Next      NodeID `json:"next"`
	}
)

const (
	NodeTypeStart    NodeType = "start"
	NodeTypeRiskEval NodeType = "risk_eval"
	NodeTypeBranch   NodeType = "branch"
	NodeTypeApprove  NodeType = "approve"
	NodeTypeNotify   NodeType = "notify"
	NodeTypeEnd      NodeType = "end"
)

const (
	ChannelEmail Channel = "email"
	ChannelERP   Channel = "erp"
	ChannelAlert Channel = "alert"
)

const (
	DecisionModeAny DecisionMode = "any"
	DecisionModeAll DecisionMode = "all"
)

var (
	ErrFlowIDEmpty        = errors.New("flow ID empty")
	ErrNoNodes            = errors.New("flow has no nodes")
	ErrNodeIDEmpty        = errors.New("node ID empty")
	ErrInvalidNodeID      = errors.New("invalid node ID")
	ErrDuplicateNodeID    = errors.New("duplicate node ID")
	ErrInvalidNodeType    = errors.New("invalid node type")
	ErrNoStartNode        = errors.New("flow has no start node")
	ErrMultipleStartNodes = errors.New("flow has multiple start nodes")
	ErrNoEndNode          = errors.New("flow has no end node")
	ErrMissingNext        = errors.New("node has no next")
	ErrUnknownNode        = errors.New("node references unknown node")
	ErrEndHasNext         = errors.New("end node has next")
	ErrBranchHasNext      = errors.New("branch node has direct next")
	ErrNoBranches         = errors.New("branch node has no branches")
	ErrConditionEmpty     = errors.New("branch condition empty")
	ErrBranchNextEmpty    = errors.New("branch next empty")
	ErrApproverRoleEmpty  = errors.New("approve node has no role")
	ErrInvalidMode        = errors.New("invalid decision mode")
	ErrInvalidChannel     = errors.New("invalid channel")
)

var (
	validNodeTypes = util.SetOf(
		NodeTypeStart,
		NodeTypeRiskEval,
		NodeTypeBranch,
		NodeTypeApprove,
		NodeTypeNotify,
		NodeTypeEnd,
	)

	validChannels = util.SetOf(
		ChannelEmail,
		ChannelERP,
		ChannelAlert,
	)

	validModes = util.SetOf(
		DecisionModeAny,
		DecisionModeAll,
	)
)

// Validate checks the structural integrity of a flow definition. Every
// node id referenced by an edge must exist in the node map; a dangling
// reference is rejected here rather than discovered mid-run
func (f *Flow) Validate() error {
	if f.FlowID == "" {
		return ErrFlowIDEmpty
	}
	if len(f.Nodes) == 0 {
		return ErrNoNodes
	}

	ids, err := f.collectNodeIDs()
	if err != nil {
		return err
	}

	starts := 0
	ends := 0
	for _, n := range f.Nodes {
		if err := n.validate(ids); err != nil {
			return err
		}
		switch n.Type {
		case NodeTypeStart:
			starts++
		case NodeTypeEnd:
			ends++
		}
	}

	if starts == 0 {
		return ErrNoStartNode
	}
	if starts > 1 {
		return ErrMultipleStartNodes
	}
	if ends == 0 {
		return ErrNoEndNode
	}
	return nil
}

func (f *Flow) collectNodeIDs() (util.Set[NodeID], error) {
	ids := make(util.Set[NodeID], len(f.Nodes))
	for _, n := range f.Nodes {
		if n.ID == "" {
			return nil, ErrNodeIDEmpty
		}
		if !IsValidID(n.ID) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidNodeID, n.ID)
		}
		if ids.Contains(n.ID) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		ids.Add(n.ID)
	}
	return ids, nil
}

func (n *Node) validate(ids util.Set[NodeID]) error {
	if !validNodeTypes.Contains(n.Type) {
		return fmt.Errorf("%w: %s (%s)", ErrInvalidNodeType, n.Type, n.ID)
	}

	switch n.Type {
	case NodeTypeEnd:
		if n.Next != "" {
			return fmt.Errorf("%w: %s", ErrEndHasNext, n.ID)
		}
		return nil
	case NodeTypeBranch:
		return n.validateBranches(ids)
	case NodeTypeApprove:
		if err := n.validateApprovers(); err != nil {
			return err
		}
	case NodeTypeNotify:
		if err := n.validateChannels(); err != nil {
			return err
		}
	}

	if n.Next == "" {
		return fmt.Errorf("%w: %s", ErrMissingNext, n.ID)
	}
	if !ids.Contains(n.Next) {
		return fmt.Errorf("%w: %s -> %s", ErrUnknownNode, n.ID, n.Next)
	}
	return nil
}

func (n *Node) validateBranches(ids util.Set[NodeID]) error {
	if n.Next != "" {
		return fmt.Errorf("%w: %s", ErrBranchHasNext, n.ID)
	}
	if len(n.Branches) == 0 {
		return fmt.Errorf("%w: %s", ErrNoBranches, n.ID)
	}
	for _, b := range n.Branches {
		if b.Condition == "" {
			return fmt.Errorf("%w: %s", ErrConditionEmpty, n.ID)
		}
		if b.Next == "" {
			return fmt.Errorf("%w: %s", ErrBranchNextEmpty, n.ID)
		}
		if !ids.Contains(b.Next) {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownNode, n.ID, b.Next)
		}
	}
	return nil
}

func (n *Node) validateApprovers() error {
	if n.Role == "" && len(n.Approvers) == 0 {
		return fmt.Errorf("%w: %s", ErrApproverRoleEmpty, n.ID)
	}
	if n.Mode != "" && !validModes.Contains(n.Mode) {
		return fmt.Errorf("%w: %s (%s)", ErrInvalidMode, n.Mode, n.ID)
	}
	return nil
}

func (n *Node) validateChannels() error {
	for _, c := range n.Channels {
		if !validChannels.Contains(c) {
			return fmt.Errorf("%w: %s (%s)", ErrInvalidChannel, c, n.ID)
		}
	}
	return nil
}

// NodeMap returns a lookup of nodes by id. Valid on a validated flow,
// where ids are unique
func (f *Flow) NodeMap() map[NodeID]*Node {
	res := make(map[NodeID]*Node, len(f.Nodes))
	for _, n := range f.Nodes {
		res[n.ID] = n
	}
	return res
}

// Start returns the entry node of the flow, or nil when no start node
// exists
func (f *Flow) Start() *Node {
	for _, n := range f.Nodes {
		if n.Type == NodeTypeStart {
			return n
		}
	}
	return nil
}

// Unreachable returns the ids of nodes that no edge from the start node
// can reach. These are not an error, but the validate command reports
// them
func (f *Flow) Unreachable() []NodeID {
	start := f.Start()
	if start == nil {
		return nil
	}

	nodes := f.NodeMap()
	seen := util.SetOf(start.ID)
	frontier := []*Node{start}
	for len(frontier) > 0 {
		n := frontier[0]
		frontier = frontier[1:]
		for _, next := range n.targets() {
			t, ok := nodes[next]
			if !ok || seen.Contains(t.ID) {
				continue
			}
			seen.Add(t.ID)
			frontier = append(frontier, t)
		}
	}

	var res []NodeID
	for _, n := range f.Nodes {
		if !seen.Contains(n.ID) {
			res = append(res, n.ID)
		}
	}
	return res
}

func (n *Node) targets() []NodeID {
	if n.Type == NodeTypeBranch {
		res := make([]NodeID, 0, len(n.Branches))
		for _, b := range n.Branches {
			res = append(res, b.Next)
		}
		return res
	}
	if n.Next == "" {
		return nil
	}
	return []NodeID{n.Next}
}

// ApprovalRoles returns the distinct roles the flow's approve nodes
// require, in flow order
func (f *Flow) ApprovalRoles() []Role {
	seen := util.Set[Role]{}
	var res []Role
	for _, n := range f.Nodes {
		if n.Type != NodeTypeApprove {
			continue
		}
		for _, r := range n.ApprovalRoles() {
			if r == "" || seen.Contains(r) {
				continue
			}
			seen.Add(r)
			res = append(res, r)
		}
	}
	return res
}

// ApprovalRoles returns the roles that must decide an approve node: the
// countersign list when present, otherwise the single role
func (n *Node) ApprovalRoles() []Role {
	if len(n.Approvers) > 0 {
		return n.Approvers
	}
	return []Role{n.Role}
}

// CountersignMode returns the decision mode for an approve node,
// defaulting to all signatures required
func (n *Node) CountersignMode() DecisionMode {
	if n.Mode == "" {
		return DecisionModeAll
	}
	return n.Mode
}

// NotifyChannels returns the channels a notify node dispatches to,
// defaulting to email and ERP when unspecified
func (n *Node) NotifyChannels() []Channel {
	if len(n.Channels) == 0 {
		return []Channel{ChannelEmail, ChannelERP}
	}
	return n.Channels
}
