/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/gary-zero/hierplan/internal/planner"
	"github.com/gary-zero/hierplan/models"
	"github.com/gary-zero/hierplan/store"
	"github.com/gary-zero/hierplan/types"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func createPlanHandler(p *planner.Planner) mcp.ToolHandlerFor[types.CreatePlanParams, types.PlanResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.CreatePlanParams]) (*mcp.CallToolResultFor[types.PlanResponse], error) {
		logToolCall("create-plan", params.Arguments)
		args := params.Arguments
		if args.Objective == "" {
			return nil, types.NewMCPError("MISSING_OBJECTIVE", "objective is required", nil)
		}

		plan, err := p.CreatePlan(args.Objective, args.ContextID)
		if err != nil {
			logError(err)
			return nil, types.NewMCPError("PLAN_CREATE_FAILED", err.Error(), nil)
		}

		resp := planToResponse(plan, true)
		return &mcp.CallToolResultFor[types.PlanResponse]{
			Content: []mcp.Content{&mcp.TextContent{
				Text: fmt.Sprintf("Created plan %s with %d subtasks", plan.ID, len(plan.Subtasks)),
			}},
			StructuredContent: resp,
		}, nil
	}
}

func getPlanStatusHandler(p *planner.Planner) mcp.ToolHandlerFor[types.GetPlanStatusParams, types.PlanStatusResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.GetPlanStatusParams]) (*mcp.CallToolResultFor[types.PlanStatusResponse], error) {
		logToolCall("get-plan-status", params.Arguments)
		args := params.Arguments
		if args.PlanID == "" {
			return nil, types.NewMCPError("MISSING_PLAN", "plan_id is required", nil)
		}

		plan, err := p.GetPlan(args.PlanID)
		if err != nil {
			logError(err)
			if errors.Is(err, store.ErrPlanNotFound) {
				return nil, types.NewMCPError("PLAN_NOT_FOUND", err.Error(), nil)
			}
			return nil, types.NewMCPError("STORE_ERROR", err.Error(), nil)
		}
		progress, err := p.Progress(args.PlanID)
		if err != nil {
			logError(err)
			return nil, types.NewMCPError("STORE_ERROR", err.Error(), nil)
		}

		resp := types.PlanStatusResponse{
			Plan:       planToResponse(plan, true),
			Total:      progress.Total,
			Completed:  progress.Completed,
			InProgress: progress.InProgress,
			Pending:    progress.Pending,
			Failed:     progress.Failed,
			Skipped:    progress.Skipped,
			Percent:    progress.Percent,
			Complete:   progress.Complete,
		}
		return &mcp.CallToolResultFor[types.PlanStatusResponse]{
			Content: []mcp.Content{&mcp.TextContent{
				Text: fmt.Sprintf("Plan %s: %s, %d/%d subtasks completed", plan.ID, plan.Status, progress.Completed, progress.Total),
			}},
			StructuredContent: resp,
		}, nil
	}
}

func listPlansHandler(p *planner.Planner) mcp.ToolHandlerFor[types.ListPlansParams, types.PlanListResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.ListPlansParams]) (*mcp.CallToolResultFor[types.PlanListResponse], error) {
		logToolCall("list-plans", params.Arguments)
		status := models.PlanStatus(params.Arguments.Status)
		switch status {
		case "", models.PlanPending, models.PlanInProgress, models.PlanCompleted, models.PlanFailed, models.PlanCancelled:
		default:
			return nil, types.NewMCPError("INVALID_STATUS", fmt.Sprintf("unknown plan status %q", status), nil)
		}

		plans, err := p.ListPlans(status)
		if err != nil {
			logError(err)
			return nil, types.NewMCPError("STORE_ERROR", err.Error(), nil)
		}

		resp := types.PlanListResponse{Count: len(plans)}
		for _, plan := range plans {
			resp.Plans = append(resp.Plans, planToResponse(plan, false))
		}
		return &mcp.CallToolResultFor[types.PlanListResponse]{
			Content: []mcp.Content{&mcp.TextContent{
				Text: fmt.Sprintf("Found %d plans", len(plans)),
			}},
			StructuredContent: resp,
		}, nil
	}
}

func cancelPlanHandler(p *planner.Planner) mcp.ToolHandlerFor[types.CancelPlanParams, types.CancelPlanResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.CancelPlanParams]) (*mcp.CallToolResultFor[types.CancelPlanResponse], error) {
		logToolCall("cancel-plan", params.Arguments)
		args := params.Arguments
		if args.PlanID == "" {
			return nil, types.NewMCPError("MISSING_PLAN", "plan_id is required", nil)
		}

		if err := p.CancelPlan(args.PlanID); err != nil {
			logError(err)
			if errors.Is(err, store.ErrPlanNotFound) {
				return nil, types.NewMCPError("PLAN_NOT_FOUND", err.Error(), nil)
			}
			return nil, types.NewMCPError("CANCEL_FAILED", err.Error(), nil)
		}

		return &mcp.CallToolResultFor[types.CancelPlanResponse]{
			Content: []mcp.Content{&mcp.TextContent{
				Text: fmt.Sprintf("Plan %s cancelled", args.PlanID),
			}},
			StructuredContent: types.CancelPlanResponse{PlanID: args.PlanID, Cancelled: true},
		}, nil
	}
}

func updateConfigurationHandler() mcp.ToolHandlerFor[types.UpdateConfigurationParams, types.UpdateConfigurationResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.UpdateConfigurationParams]) (*mcp.CallToolResultFor[types.UpdateConfigurationResponse], error) {
		logToolCall("update-configuration", params.Arguments)
		args := params.Arguments
		if args.Key == "" {
			return nil, types.NewMCPError("MISSING_KEY", "key is required", nil)
		}

		if err := SetConfigValue(args.Key, args.Value); err != nil {
			logError(err)
			return nil, types.NewMCPError("CONFIG_UPDATE_FAILED", err.Error(), nil)
		}

		return &mcp.CallToolResultFor[types.UpdateConfigurationResponse]{
			Content: []mcp.Content{&mcp.TextContent{
				Text: fmt.Sprintf("Set %s = %s", args.Key, args.Value),
			}},
			StructuredContent: types.UpdateConfigurationResponse{Key: args.Key, Value: args.Value, Updated: true},
		}, nil
	}
}

// planToResponse converts a plan to its wire form. Subtasks are included
// only when withSubtasks is set; listings stay compact.
func planToResponse(plan *models.HierarchicalPlan, withSubtasks bool) types.PlanResponse {
	resp := types.PlanResponse{
		ID:           plan.ID,
		Objective:    plan.Objective,
		Status:       string(plan.Status),
		ContextID:    plan.ContextID,
		SubtaskCount: len(plan.Subtasks),
		CreatedAt:    plan.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    plan.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if withSubtasks {
		for _, st := range plan.Subtasks {
			resp.Subtasks = append(resp.Subtasks, types.SubtaskResponse{
				ID:           st.ID,
				Name:         st.Name,
				Description:  st.Description,
				Tool:         string(st.Tool),
				Dependencies: st.Dependencies,
				Status:       string(st.Status),
				Result:       st.Result,
				Error:        st.Error,
			})
		}
	}
	return resp
}
