package web

// ExecuteWorkflowRequest is the body for POST /workflows/:id/execute.
type ExecuteWorkflowRequest struct {
	TriggerType string         `json:"trigger_type" validate:"omitempty,oneof=manual webhook schedule api"`
	TriggerData map[string]any `json:"trigger_data"`
	UserID      string         `json:"user_id"`
}

// ListExecutionsRequest holds the parsed query parameters for listing a
// workflow's executions.
type ListExecutionsRequest struct {
	Limit  int `validate:"min=0,max=500"`
	Offset int `validate:"min=0"`
}
