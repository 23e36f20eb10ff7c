/*
Copyright © 2025 Gary Zero
*/
package types

// MCP tool parameter and response types. All fields use JSON tags for
// schema generation by the MCP SDK.

// CreatePlanParams are the arguments for the create-plan tool
type CreatePlanParams struct {
	Objective string `json:"objective"`
	ContextID string `json:"context_id,omitempty"`
}

// GetPlanStatusParams are the arguments for the get-plan-status tool
type GetPlanStatusParams struct {
	PlanID string `json:"plan_id"`
}

// ListPlansParams are the arguments for the list-plans tool
type ListPlansParams struct {
	// Status filters by plan status; empty lists all plans.
	Status string `json:"status,omitempty"`
}

// CancelPlanParams are the arguments for the cancel-plan tool
type CancelPlanParams struct {
	PlanID string `json:"plan_id"`
}

// UpdateConfigurationParams are the arguments for the update-configuration tool
type UpdateConfigurationParams struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SubtaskResponse is the wire representation of one subtask
type SubtaskResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Tool         string   `json:"tool,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Status       string   `json:"status"`
	Result       string   `json:"result,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// PlanResponse is the wire representation of one plan
type PlanResponse struct {
	ID           string            `json:"id"`
	Objective    string            `json:"objective"`
	Status       string            `json:"status"`
	ContextID    string            `json:"context_id,omitempty"`
	Subtasks     []SubtaskResponse `json:"subtasks,omitempty"`
	SubtaskCount int               `json:"subtask_count"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

// PlanStatusResponse is the progress snapshot returned by get-plan-status
type PlanStatusResponse struct {
	Plan       PlanResponse `json:"plan"`
	Total      int          `json:"total"`
	Completed  int          `json:"completed"`
	InProgress int          `json:"in_progress"`
	Pending    int          `json:"pending"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Percent    float64      `json:"percent"`
	Complete   bool         `json:"complete"`
}

// PlanListResponse is returned by list-plans
type PlanListResponse struct {
	Plans []PlanResponse `json:"plans"`
	Count int            `json:"count"`
}

// CancelPlanResponse is returned by cancel-plan
type CancelPlanResponse struct {
	PlanID    string `json:"plan_id"`
	Cancelled bool   `json:"cancelled"`
}

// UpdateConfigurationResponse is returned by update-configuration
type UpdateConfigurationResponse struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Updated bool   `json:"updated"`
}
