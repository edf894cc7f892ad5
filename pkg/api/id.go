package api

import (
	"regexp"
	"strings"
)

type (
	// FlowID is a unique identifier for a flow definition
	FlowID string

	// NodeID is a unique identifier for a node within a flow
	NodeID string

	// RunID is a unique identifier for a single run of a flow
	RunID string

	// RequestID is a unique identifier for an approval request
	RequestID string

	// Tenant discriminates per-tenant data files and configuration
	Tenant string

	// Role names an approver entry in the rules
	Role string

	// FlowNode identifies a node visit within a run
	FlowNode struct {
		RunID  RunID
		NodeID NodeID
	}
)

// InvalidIDChars matches characters not permitted in flow, node, and run
// IDs. Valid characters are: letters, digits, underscore, dot, hyphen,
// plus, space
var InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}

// IsValidID reports whether an ID is non-empty and free of invalid
// characters
func IsValidID[T ~string](id T) bool {
	return id != "" && !InvalidIDChars.MatchString(string(id))
}
