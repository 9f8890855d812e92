package logic

import "errors"

// Sentinel errors for caller mistakes: unlike graph-content problems, which
// are always returned as Issue data, these indicate a reference to something
// that does not exist at all.
var (
	ErrGraphNotFound      = errors.New("logic: graph not found")
	ErrNodeNotFound       = errors.New("logic: node not found")
	ErrConnectionNotFound = errors.New("logic: connection not found")
)

// Severity partitions diagnostics into blocking and advisory classes.
type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Diagnostic codes. Errors block a graph's validity; warnings are advisory.
const (
	CodeSourceNodeNotFound = "SOURCE_NODE_NOT_FOUND"
	CodeTargetNodeNotFound = "TARGET_NODE_NOT_FOUND"
	CodeInvalidConnection  = "INVALID_CONNECTION"
	CodeUndefinedVariable  = "UNDEFINED_VARIABLE"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
	CodeMissingOperator    = "MISSING_OPERATOR"
	CodeOrphanedNode       = "ORPHANED_NODE"
)

// Issue is a structured validation diagnostic surfaced to the editor UI.
// Codes are informational, not a versioned API contract.
type Issue struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	NodeID       string   `json:"node_id,omitempty"`
	ConnectionID string   `json:"connection_id,omitempty"`
}
