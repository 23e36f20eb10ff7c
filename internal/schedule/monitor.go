// Package schedule dispatches plan subtasks to the external task store and
// feeds completions back through the evaluation loop. Dispatch is gated on
// dependency completion; dependency depth additionally staggers the
// requested start time of deeper subtasks.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gary-zero/hierplan/internal/planner"
	"github.com/gary-zero/hierplan/internal/taskstore"
	"github.com/gary-zero/hierplan/models"
)

// DefaultDepthDelay is the per-dependency-level stagger applied to the
// requested start time of a dispatched subtask.
const DefaultDepthDelay = 5 * time.Minute

const subtaskSystemPrompt = "You are executing one subtask of a larger plan. " +
	"Stay within the subtask's scope and return only its result."

// taskRef identifies a dispatched subtask.
type taskRef struct {
	planID    string
	subtaskID string
}

// Monitor owns the mapping between plan subtasks and external task ids. One
// subtask has at most one live external task; the mapping entry is consumed
// when the completion arrives, so a subtask revived by an adjustment can be
// dispatched again.
type Monitor struct {
	mu         sync.Mutex
	planner    *planner.Planner
	tasks      taskstore.TaskStore
	depthDelay time.Duration

	byExternal map[string]taskRef
	bySubtask  map[taskRef]string
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithDepthDelay overrides the per-level start-time stagger. Zero disables
// staggering.
func WithDepthDelay(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.depthDelay = d }
}

// NewMonitor wires a monitor to the planner façade and a task store.
func NewMonitor(p *planner.Planner, tasks taskstore.TaskStore, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		planner:    p,
		tasks:      tasks,
		depthDelay: DefaultDepthDelay,
		byExternal: make(map[string]taskRef),
		bySubtask:  make(map[taskRef]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartPlan dispatches every currently eligible subtask of a pending plan
// and marks the plan in progress. If any submission fails, the ones already
// submitted are cancelled best-effort and the plan status is left untouched.
func (m *Monitor) StartPlan(ctx context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan, err := m.planner.GetPlan(planID)
	if err != nil {
		return err
	}
	if plan.Status == models.PlanCancelled {
		return fmt.Errorf("plan %s is cancelled", planID)
	}

	submitted, err := m.dispatchEligible(ctx, plan)
	if err != nil {
		for _, externalID := range submitted {
			if cancelErr := m.tasks.Cancel(ctx, externalID); cancelErr != nil {
				slog.Warn("rollback cancellation failed",
					"plan", planID,
					"external_id", externalID,
					"error", cancelErr)
			}
			m.forget(externalID)
		}
		return fmt.Errorf("start plan %s: %w", planID, err)
	}
	if len(submitted) == 0 {
		return fmt.Errorf("start plan %s: no dispatchable subtasks", planID)
	}

	if err := m.markStarted(planID, submitted); err != nil {
		return err
	}
	if err := m.planner.StartPlan(planID); err != nil {
		return err
	}
	slog.Info("plan started", "plan", planID, "dispatched", len(submitted))
	return nil
}

// HandleCompletion correlates an external task result with its subtask, runs
// the evaluation loop, and dispatches any subtasks that became eligible
// (dependency unlocked or newly added by an adjustment). Unknown external
// ids are ignored.
func (m *Monitor) HandleCompletion(ctx context.Context, externalID, output string) (planner.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref, ok := m.byExternal[externalID]
	if !ok {
		slog.Debug("completion for unknown external task ignored", "external_id", externalID)
		return planner.OutcomeNone, nil
	}
	m.forget(externalID)

	outcome, result, err := m.planner.ProcessSubtaskOutput(ref.planID, ref.subtaskID, output, nil)
	if err != nil {
		return outcome, fmt.Errorf("process completion of subtask %s: %w", ref.subtaskID, err)
	}
	if outcome == planner.OutcomeNone {
		return outcome, nil
	}
	if result != nil && result.Feedback != "" {
		slog.Debug("evaluation feedback",
			"plan", ref.planID,
			"subtask", ref.subtaskID,
			"feedback", result.Feedback)
	}

	plan, err := m.planner.GetPlan(ref.planID)
	if err != nil {
		return outcome, err
	}
	switch plan.Status {
	case models.PlanCompleted:
		slog.Info("plan completed", "plan", plan.ID)
		return outcome, nil
	case models.PlanFailed:
		slog.Warn("plan failed", "plan", plan.ID)
		return outcome, nil
	case models.PlanCancelled:
		return outcome, nil
	}

	dispatched, err := m.dispatchEligible(ctx, plan)
	if err != nil {
		return outcome, fmt.Errorf("dispatch follow-up subtasks for plan %s: %w", plan.ID, err)
	}
	if err := m.markStarted(plan.ID, dispatched); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// markStarted flips the dispatched subtasks to in_progress via the façade.
func (m *Monitor) markStarted(planID string, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(externalIDs))
	for _, externalID := range externalIDs {
		if ref, ok := m.byExternal[externalID]; ok {
			ids = append(ids, ref.subtaskID)
		}
	}
	return m.planner.MarkSubtasksStarted(planID, ids...)
}

// CancelPlan cancels the plan and best-effort cancels its live external
// tasks. Backend cancellation failures are logged, not returned.
func (m *Monitor) CancelPlan(ctx context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.planner.CancelPlan(planID); err != nil {
		return err
	}
	for externalID, ref := range m.byExternal {
		if ref.planID != planID {
			continue
		}
		if err := m.tasks.Cancel(ctx, externalID); err != nil {
			slog.Warn("external task cancellation failed",
				"plan", planID,
				"subtask", ref.subtaskID,
				"external_id", externalID,
				"error", err)
		}
		m.forget(externalID)
	}
	return nil
}

// dispatchEligible submits every pending, unmapped subtask whose
// dependencies are all completed. It returns the external ids submitted in
// this call; on error, the successfully submitted ids are still returned so
// the caller can roll them back.
func (m *Monitor) dispatchEligible(ctx context.Context, plan *models.HierarchicalPlan) ([]string, error) {
	depths := make(map[string]int, len(plan.Subtasks))
	now := time.Now()

	var submitted []string
	for _, st := range plan.Subtasks {
		if st.Status != models.SubtaskPending {
			continue
		}
		ref := taskRef{planID: plan.ID, subtaskID: st.ID}
		if _, live := m.bySubtask[ref]; live {
			continue
		}
		if !m.dependenciesSatisfied(plan, st) {
			continue
		}

		desc := taskstore.Descriptor{
			Name:         st.Name,
			SystemPrompt: subtaskSystemPrompt,
			UserPrompt:   buildPrompt(plan, st),
			ContextID:    plan.ContextID,
		}
		if m.depthDelay > 0 {
			if depth := m.depthOf(plan, st.ID, depths, nil); depth > 0 {
				desc.ScheduledAt = now.Add(time.Duration(depth) * m.depthDelay)
			}
		}

		externalID, err := m.tasks.Submit(ctx, desc)
		if err != nil {
			return submitted, fmt.Errorf("submit subtask %s: %w", st.ID, err)
		}
		m.byExternal[externalID] = ref
		m.bySubtask[ref] = externalID
		submitted = append(submitted, externalID)
		slog.Debug("subtask dispatched",
			"plan", plan.ID,
			"subtask", st.ID,
			"name", st.Name,
			"external_id", externalID)
	}
	return submitted, nil
}

func (m *Monitor) dependenciesSatisfied(plan *models.HierarchicalPlan, st *models.Subtask) bool {
	for _, dep := range st.Dependencies {
		depTask := plan.Subtask(dep)
		if depTask == nil || depTask.Status != models.SubtaskCompleted {
			return false
		}
	}
	return true
}

// depthOf is the length of the longest dependency chain below a subtask.
// Results are memoized in depths; visiting guards against cycles, which
// count as depth zero rather than recursing forever.
func (m *Monitor) depthOf(plan *models.HierarchicalPlan, id string, depths map[string]int, visiting map[string]bool) int {
	if d, ok := depths[id]; ok {
		return d
	}
	if visiting == nil {
		visiting = make(map[string]bool)
	}
	if visiting[id] {
		return 0
	}
	visiting[id] = true
	defer delete(visiting, id)

	st := plan.Subtask(id)
	if st == nil {
		return 0
	}
	depth := 0
	for _, dep := range st.Dependencies {
		if d := m.depthOf(plan, dep, depths, visiting) + 1; d > depth {
			depth = d
		}
	}
	depths[id] = depth
	return depth
}

// forget drops both directions of the external-id mapping.
func (m *Monitor) forget(externalID string) {
	if ref, ok := m.byExternal[externalID]; ok {
		delete(m.bySubtask, ref)
		delete(m.byExternal, externalID)
	}
}

// buildPrompt renders the enhanced prompt for one subtask: overall objective,
// the subtask itself, completed-dependency context, tool hint, and quality
// guidelines.
func buildPrompt(plan *models.HierarchicalPlan, st *models.Subtask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall objective: %s\n\n", plan.Objective)
	fmt.Fprintf(&b, "Your subtask: %s\n%s\n", st.Name, st.Description)

	if len(st.Dependencies) > 0 {
		b.WriteString("\nResults from completed prerequisite steps:\n")
		for _, dep := range st.Dependencies {
			depTask := plan.Subtask(dep)
			if depTask == nil || depTask.Result == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", depTask.Name, depTask.Result)
		}
	}
	if st.Tool != models.ToolNone {
		fmt.Fprintf(&b, "\nRecommended tool: %s\n", st.Tool)
	}
	b.WriteString("\nGuidelines: be specific and complete, cite concrete data where available, " +
		"and do not repeat work already done by prerequisite steps.")
	return b.String()
}
