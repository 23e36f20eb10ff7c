package cmd

import (
	"context"
	"testing"

	"github.com/gary-zero/hierplan/internal/adjust"
	"github.com/gary-zero/hierplan/internal/decompose"
	"github.com/gary-zero/hierplan/internal/evaluate"
	"github.com/gary-zero/hierplan/internal/planner"
	"github.com/gary-zero/hierplan/store"
	"github.com/gary-zero/hierplan/types"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newToolTestPlanner() *planner.Planner {
	loop := planner.NewLoop(evaluate.NewHeuristicEvaluator(), adjust.New(), true)
	return planner.NewPlanner(store.NewMemoryPlanStore(), decompose.NewRuleDecomposer(), loop)
}

func TestCreatePlanTool(t *testing.T) {
	p := newToolTestPlanner()
	handler := createPlanHandler(p)

	params := &mcp.CallToolParamsFor[types.CreatePlanParams]{
		Arguments: types.CreatePlanParams{Objective: "research market trends and summarize findings"},
	}
	res, err := handler(context.Background(), nil, params)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.StructuredContent.ID == "" || res.StructuredContent.SubtaskCount == 0 {
		t.Fatalf("unexpected response: %+v", res.StructuredContent)
	}
	if res.StructuredContent.Status != "pending" {
		t.Errorf("status = %q, want pending", res.StructuredContent.Status)
	}
}

func TestCreatePlanToolRequiresObjective(t *testing.T) {
	handler := createPlanHandler(newToolTestPlanner())
	params := &mcp.CallToolParamsFor[types.CreatePlanParams]{}
	if _, err := handler(context.Background(), nil, params); err == nil {
		t.Fatal("expected error for missing objective")
	}
}

func TestGetPlanStatusTool(t *testing.T) {
	p := newToolTestPlanner()
	plan, err := p.CreatePlan("inspect the build pipeline", "")
	if err != nil {
		t.Fatalf("CreatePlan(): %v", err)
	}

	handler := getPlanStatusHandler(p)
	res, err := handler(context.Background(), nil, &mcp.CallToolParamsFor[types.GetPlanStatusParams]{
		Arguments: types.GetPlanStatusParams{PlanID: plan.ID},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.StructuredContent.Total != len(plan.Subtasks) || res.StructuredContent.Complete {
		t.Fatalf("unexpected response: %+v", res.StructuredContent)
	}

	if _, err := handler(context.Background(), nil, &mcp.CallToolParamsFor[types.GetPlanStatusParams]{
		Arguments: types.GetPlanStatusParams{PlanID: "missing"},
	}); err == nil {
		t.Fatal("expected error for unknown plan")
	}
}

func TestListAndCancelPlanTools(t *testing.T) {
	p := newToolTestPlanner()
	plan, err := p.CreatePlan("catalog the archives", "")
	if err != nil {
		t.Fatalf("CreatePlan(): %v", err)
	}

	cancelRes, err := cancelPlanHandler(p)(context.Background(), nil, &mcp.CallToolParamsFor[types.CancelPlanParams]{
		Arguments: types.CancelPlanParams{PlanID: plan.ID},
	})
	if err != nil {
		t.Fatalf("cancel handler error: %v", err)
	}
	if !cancelRes.StructuredContent.Cancelled {
		t.Error("cancel response not marked cancelled")
	}

	listRes, err := listPlansHandler(p)(context.Background(), nil, &mcp.CallToolParamsFor[types.ListPlansParams]{
		Arguments: types.ListPlansParams{Status: "cancelled"},
	})
	if err != nil {
		t.Fatalf("list handler error: %v", err)
	}
	if listRes.StructuredContent.Count != 1 {
		t.Fatalf("unexpected list response: %+v", listRes.StructuredContent)
	}

	if _, err := listPlansHandler(p)(context.Background(), nil, &mcp.CallToolParamsFor[types.ListPlansParams]{
		Arguments: types.ListPlansParams{Status: "bogus"},
	}); err == nil {
		t.Fatal("expected error for invalid status filter")
	}
}
