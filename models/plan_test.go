package models

import (
	"testing"
)

func newTestPlan(statuses ...SubtaskStatus) *HierarchicalPlan {
	subtasks := make([]*Subtask, len(statuses))
	for i, status := range statuses {
		st := NewSubtask(testID(i), "step", "do the step", ToolNone, nil)
		st.Status = status
		subtasks[i] = st
	}
	return NewPlan("99999999-9999-4999-8999-999999999999", "test objective", "", subtasks)
}

// testID returns a stable uuid-shaped id for index i.
func testID(i int) string {
	digit := byte('a' + i)
	id := []byte("00000000-0000-4000-8000-000000000000")
	id[len(id)-1] = digit
	return string(id)
}

func TestPlanIsComplete(t *testing.T) {
	plan := newTestPlan(SubtaskCompleted, SubtaskCompleted, SubtaskCompleted)
	if !plan.IsComplete() {
		t.Error("IsComplete() = false with all subtasks completed")
	}

	plan = newTestPlan(SubtaskCompleted, SubtaskSkipped, SubtaskCompleted)
	if plan.IsComplete() {
		t.Error("IsComplete() = true with a skipped subtask")
	}
}

func TestRecomputeStatusMajorityFailed(t *testing.T) {
	// 3 of 4 failed: more than half, plan fails.
	plan := newTestPlan(SubtaskFailed, SubtaskFailed, SubtaskFailed, SubtaskCompleted)
	if got := plan.RecomputeStatus(); got != PlanFailed {
		t.Errorf("RecomputeStatus() = %q, want %q", got, PlanFailed)
	}

	// 2 of 4 failed: exactly half, plan stays in progress.
	plan = newTestPlan(SubtaskFailed, SubtaskFailed, SubtaskCompleted, SubtaskPending)
	if got := plan.RecomputeStatus(); got != PlanInProgress {
		t.Errorf("RecomputeStatus() = %q, want %q", got, PlanInProgress)
	}
}

func TestRecomputeStatusCompleted(t *testing.T) {
	plan := newTestPlan(SubtaskCompleted, SubtaskCompleted)
	if got := plan.RecomputeStatus(); got != PlanCompleted {
		t.Errorf("RecomputeStatus() = %q, want %q", got, PlanCompleted)
	}
}

func TestRecomputeStatusPreservesCancelled(t *testing.T) {
	plan := newTestPlan(SubtaskFailed, SubtaskFailed, SubtaskFailed)
	if err := plan.Cancel(); err != nil {
		t.Fatalf("Cancel(): %v", err)
	}
	if got := plan.RecomputeStatus(); got != PlanCancelled {
		t.Errorf("RecomputeStatus() after cancel = %q, want %q", got, PlanCancelled)
	}
}

func TestCancelCompletedPlan(t *testing.T) {
	plan := newTestPlan(SubtaskCompleted)
	plan.RecomputeStatus()
	if err := plan.Cancel(); err == nil {
		t.Error("Cancel() on a completed plan should fail")
	}
}

func TestInsertAfterPreservesOrder(t *testing.T) {
	plan := newTestPlan(SubtaskPending, SubtaskPending, SubtaskPending)
	extra := NewSubtask("55555555-5555-4555-8555-555555555555", "retry", "retry the step", ToolWebpageContent, nil)

	if err := plan.InsertAfter(plan.Subtasks[1].ID, extra); err != nil {
		t.Fatalf("InsertAfter(): %v", err)
	}
	if len(plan.Subtasks) != 4 {
		t.Fatalf("len(Subtasks) = %d, want 4", len(plan.Subtasks))
	}
	if plan.Subtasks[2].ID != extra.ID {
		t.Errorf("inserted subtask at position %d, want 2", plan.indexOf(extra.ID))
	}
	if plan.Subtask(extra.ID) == nil {
		t.Error("Subtask() lookup failed after insertion")
	}
}

func TestInsertBefore(t *testing.T) {
	plan := newTestPlan(SubtaskPending, SubtaskPending)
	prep := NewSubtask("66666666-6666-4666-8666-666666666666", "prepare", "gather prerequisites", ToolKnowledge, nil)

	if err := plan.InsertBefore(plan.Subtasks[1].ID, prep); err != nil {
		t.Fatalf("InsertBefore(): %v", err)
	}
	if plan.Subtasks[1].ID != prep.ID {
		t.Errorf("prep subtask at position %d, want 1", plan.indexOf(prep.ID))
	}
}

func TestInsertUnknownAnchor(t *testing.T) {
	plan := newTestPlan(SubtaskPending)
	extra := NewSubtask("77777777-7777-4777-8777-777777777777", "x", "y", ToolNone, nil)
	if err := plan.InsertAfter("missing", extra); err == nil {
		t.Error("InsertAfter() with unknown anchor should fail")
	}
}

func TestVerifyDependencyClosure(t *testing.T) {
	plan := newTestPlan(SubtaskPending, SubtaskPending)
	plan.Subtasks[1].Dependencies = []string{plan.Subtasks[0].ID}
	if err := plan.VerifyDependencyClosure(); err != nil {
		t.Errorf("VerifyDependencyClosure() on valid plan: %v", err)
	}

	plan.Subtasks[1].Dependencies = append(plan.Subtasks[1].Dependencies, "dangling-id")
	if err := plan.VerifyDependencyClosure(); err == nil {
		t.Error("VerifyDependencyClosure() should reject dangling dependency")
	}
}

func TestVerifyAcyclic(t *testing.T) {
	plan := newTestPlan(SubtaskPending, SubtaskPending, SubtaskPending)
	a, b, c := plan.Subtasks[0], plan.Subtasks[1], plan.Subtasks[2]
	b.Dependencies = []string{a.ID}
	c.Dependencies = []string{b.ID}
	if err := plan.VerifyAcyclic(); err != nil {
		t.Errorf("VerifyAcyclic() on a chain: %v", err)
	}

	a.Dependencies = []string{c.ID}
	if err := plan.VerifyAcyclic(); err == nil {
		t.Error("VerifyAcyclic() should detect the a->b->c->a cycle")
	}
}

func TestEvaluationResultFinalize(t *testing.T) {
	cases := []struct {
		raw          float64
		wantScore    float64
		wantSuccess  bool
		wantRetry    bool
		wantDeadZone bool
	}{
		{raw: 1.4, wantScore: 1.0, wantSuccess: true},
		{raw: -0.3, wantScore: 0.0, wantRetry: true},
		{raw: 0.7, wantScore: 0.7, wantSuccess: true},
		{raw: 0.6, wantScore: 0.6, wantDeadZone: true},
		{raw: 0.5, wantScore: 0.5, wantDeadZone: true},
		{raw: 0.49, wantScore: 0.49, wantRetry: true},
	}
	for _, tc := range cases {
		r := EvaluationResult{Score: tc.raw}
		r.Finalize()
		if r.Score != tc.wantScore {
			t.Errorf("Finalize(%v) score = %v, want %v", tc.raw, r.Score, tc.wantScore)
		}
		if r.Success != tc.wantSuccess {
			t.Errorf("Finalize(%v) success = %v, want %v", tc.raw, r.Success, tc.wantSuccess)
		}
		if r.RequiresRetry != tc.wantRetry {
			t.Errorf("Finalize(%v) requiresRetry = %v, want %v", tc.raw, r.RequiresRetry, tc.wantRetry)
		}
		if r.InDeadZone() != tc.wantDeadZone {
			t.Errorf("Finalize(%v) deadZone = %v, want %v", tc.raw, r.InDeadZone(), tc.wantDeadZone)
		}
	}
}
