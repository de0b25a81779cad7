package models

// Built-in node types handled by the engine itself. Integration executors
// register additional "action:*" subtypes through the registry; dispatch is
// strictly by this declared type, never by label text.
const (
	NodeTypeTrigger   = "trigger"
	NodeTypeCondition = "condition"
	NodeTypeTransform = "transform"
	NodeTypeDelay     = "delay"
	NodeTypeAction    = "action"
)

// DefaultHandle is the output handle used when an edge does not name one.
const DefaultHandle = "output"

// Node is a unit of work inside a workflow. The engine only reads it.
type Node struct {
	ID             string         `json:"id"              validate:"required"`
	Type           string         `json:"type"            validate:"required"`
	Label          string         `json:"label"`
	Config         map[string]any `json:"config,omitempty"`
	CredentialRefs []string       `json:"credential_refs,omitempty"`
	RetryOnFail    int            `json:"retry_on_fail,omitempty" validate:"min=0"`
}

// Edge is a directed dependency and control-flow link between two nodes.
// SourceHandle selects which output of the source activates this edge;
// empty means DefaultHandle.
type Edge struct {
	ID           string `json:"id"             validate:"required"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	SourceHandle string `json:"source_handle,omitempty"`
}

// Handle returns the edge's source handle, defaulting to DefaultHandle.
func (e *Edge) Handle() string {
	if e.SourceHandle == "" {
		return DefaultHandle
	}

	return e.SourceHandle
}
