package adjust

import (
	"strings"
	"testing"

	"github.com/gary-zero/hierplan/models"
	"github.com/google/uuid"
)

// threeStepPlan builds a -> b -> c with b the subtask under test.
func threeStepPlan(bDescription string, bTool models.Tool) (*models.HierarchicalPlan, *models.Subtask) {
	a := models.NewSubtask(uuid.NewString(), "first", "do the first thing", models.ToolNone, nil)
	b := models.NewSubtask(uuid.NewString(), "middle", bDescription, bTool, []string{a.ID})
	c := models.NewSubtask(uuid.NewString(), "last", "do the last thing", models.ToolNone, []string{b.ID})
	plan := models.NewPlan(uuid.NewString(), "objective", "", []*models.Subtask{a, b, c})
	return plan, b
}

func TestAdjustRetryWithAlternativeTool(t *testing.T) {
	plan, failed := threeStepPlan("search for sources", models.ToolSearchEngine)
	result := &models.EvaluationResult{AlternativeTool: models.ToolWebpageContent}

	strategy, applied, err := New().AdjustPlanAfterFailure(plan, failed, result)
	if err != nil {
		t.Fatalf("AdjustPlanAfterFailure(): %v", err)
	}
	if strategy != StrategyAlternativeTool || !applied {
		t.Fatalf("strategy = %q applied = %v, want alternative_tool applied", strategy, applied)
	}

	if failed.Status != models.SubtaskSkipped {
		t.Errorf("original status = %q, want skipped", failed.Status)
	}

	// Retry sits immediately after the original.
	var retry *models.Subtask
	for i, st := range plan.Subtasks {
		if st.ID == failed.ID && i+1 < len(plan.Subtasks) {
			retry = plan.Subtasks[i+1]
		}
	}
	if retry == nil || !strings.HasPrefix(retry.Name, "Retry: ") {
		t.Fatalf("expected a retry subtask after the original, got %+v", plan.Subtasks)
	}
	if retry.Tool != models.ToolWebpageContent {
		t.Errorf("retry tool = %q, want webpage_content_tool", retry.Tool)
	}

	// The retry inherits the original's dependencies; the dependent now
	// points at the retry instead of the skipped original.
	if len(retry.Dependencies) != 1 || retry.Dependencies[0] != plan.Subtasks[0].ID {
		t.Errorf("retry dependencies = %v, want the original's", retry.Dependencies)
	}
	last := plan.Subtasks[len(plan.Subtasks)-1]
	if !last.DependsOn(retry.ID) || last.DependsOn(failed.ID) {
		t.Errorf("dependent was not rewired onto the retry: %v", last.Dependencies)
	}

	if err := plan.VerifyDependencyClosure(); err != nil {
		t.Errorf("dependency closure broken: %v", err)
	}
}

func TestAdjustSplitComplexSubtask(t *testing.T) {
	padding := strings.Repeat("x", 200)
	desc := "Do A " + padding + " and also do B " + padding + " and then do C " + padding
	plan, failed := threeStepPlan(desc, models.ToolKnowledge)

	strategy, applied, err := New().AdjustPlanAfterFailure(plan, failed, &models.EvaluationResult{})
	if err != nil {
		t.Fatalf("AdjustPlanAfterFailure(): %v", err)
	}
	if strategy != StrategySplit || !applied {
		t.Fatalf("strategy = %q applied = %v, want split applied", strategy, applied)
	}
	if failed.Status != models.SubtaskSkipped {
		t.Errorf("original status = %q, want skipped", failed.Status)
	}

	// 3 original + 3 parts
	if len(plan.Subtasks) != 6 {
		t.Fatalf("len(Subtasks) = %d, want 6", len(plan.Subtasks))
	}

	// Parts sit at the original's position, chained part i+1 -> part i,
	// first part inheriting the original's dependencies.
	first, second, third := plan.Subtasks[1], plan.Subtasks[2], plan.Subtasks[3]
	if !first.DependsOn(plan.Subtasks[0].ID) {
		t.Errorf("first part should inherit original dependencies, got %v", first.Dependencies)
	}
	if !second.DependsOn(first.ID) || !third.DependsOn(second.ID) {
		t.Error("parts are not chained in order")
	}

	// The dependent now waits on the last part.
	last := plan.Subtasks[len(plan.Subtasks)-1]
	if !last.DependsOn(third.ID) || last.DependsOn(failed.ID) {
		t.Errorf("dependent was not rewired onto the last part: %v", last.Dependencies)
	}

	if err := plan.VerifyDependencyClosure(); err != nil {
		t.Errorf("dependency closure broken: %v", err)
	}
}

func TestAdjustSplitWithoutConjunctionNotApplied(t *testing.T) {
	desc := strings.Repeat("no conjunction here, ", 15) // > 200 chars, no " and "
	plan, failed := threeStepPlan(desc, models.ToolNone)

	strategy, applied, err := New().AdjustPlanAfterFailure(plan, failed, &models.EvaluationResult{})
	if err != nil {
		t.Fatalf("AdjustPlanAfterFailure(): %v", err)
	}
	if strategy != StrategySplit {
		t.Errorf("strategy = %q, want split", strategy)
	}
	if applied {
		t.Error("split without a conjunction should not apply")
	}
	if len(plan.Subtasks) != 3 {
		t.Errorf("plan mutated despite unapplied strategy: %d subtasks", len(plan.Subtasks))
	}
}

func TestAdjustAddPreparationSubtask(t *testing.T) {
	plan, failed := threeStepPlan("short step", models.ToolNone)
	origDep := failed.Dependencies[0]

	strategy, applied, err := New().AdjustPlanAfterFailure(plan, failed, &models.EvaluationResult{})
	if err != nil {
		t.Fatalf("AdjustPlanAfterFailure(): %v", err)
	}
	if strategy != StrategyPreparation || !applied {
		t.Fatalf("strategy = %q applied = %v, want preparation applied", strategy, applied)
	}

	prep := plan.Subtasks[1]
	if !strings.HasPrefix(prep.Name, "Prepare for: ") {
		t.Fatalf("expected prep subtask before the original, got %q", prep.Name)
	}
	if prep.Tool != models.ToolKnowledge {
		t.Errorf("prep tool = %q, want knowledge_tool", prep.Tool)
	}
	if !prep.DependsOn(origDep) {
		t.Errorf("prep should inherit the original dependencies, got %v", prep.Dependencies)
	}

	// The failed subtask is re-queued behind just the prep subtask.
	if failed.Status != models.SubtaskPending {
		t.Errorf("original status = %q, want pending after revive", failed.Status)
	}
	if len(failed.Dependencies) != 1 || failed.Dependencies[0] != prep.ID {
		t.Errorf("original dependencies = %v, want [%s]", failed.Dependencies, prep.ID)
	}

	if err := plan.VerifyDependencyClosure(); err != nil {
		t.Errorf("dependency closure broken: %v", err)
	}
}

func TestAdjustPriorityOrder(t *testing.T) {
	// Alternative tool wins even when the description is long enough to split.
	longDesc := "Do A " + strings.Repeat("x", 300) + " and do B"
	plan, failed := threeStepPlan(longDesc, models.ToolSearchEngine)
	result := &models.EvaluationResult{AlternativeTool: models.ToolWebpageContent}

	strategy, applied, err := New().AdjustPlanAfterFailure(plan, failed, result)
	if err != nil {
		t.Fatalf("AdjustPlanAfterFailure(): %v", err)
	}
	if strategy != StrategyAlternativeTool || !applied {
		t.Errorf("strategy = %q, want alternative_tool to take priority over split", strategy)
	}
}
