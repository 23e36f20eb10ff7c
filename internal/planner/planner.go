package planner

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gary-zero/hierplan/internal/decompose"
	"github.com/gary-zero/hierplan/models"
	"github.com/gary-zero/hierplan/store"
	"github.com/google/uuid"
)

// Progress is a point-in-time snapshot of plan execution. Reading progress
// never mutates the plan, so repeated calls return identical results until a
// subtask transitions.
type Progress struct {
	PlanID     string            `json:"plan_id"`
	Objective  string            `json:"objective"`
	Status     models.PlanStatus `json:"status"`
	Total      int               `json:"total"`
	Completed  int               `json:"completed"`
	InProgress int               `json:"in_progress"`
	Pending    int               `json:"pending"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Percent    float64           `json:"percent"`
	Complete   bool              `json:"complete"`
}

// Planner is the façade over decomposition, persistence, and the evaluation
// loop. It serializes all plan mutations behind a single mutex; reads go to
// the store directly.
type Planner struct {
	mu         sync.Mutex
	store      store.PlanStore
	decomposer decompose.Decomposer
	loop       *Loop
	verify     bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithVerification toggles structural verification (dependency closure and
// cycle checks) of freshly decomposed plans. Enabled by default.
func WithVerification(enabled bool) Option {
	return func(p *Planner) { p.verify = enabled }
}

// NewPlanner wires the façade. The store, decomposer, and loop are required.
func NewPlanner(st store.PlanStore, decomposer decompose.Decomposer, loop *Loop, opts ...Option) *Planner {
	p := &Planner{
		store:      st,
		decomposer: decomposer,
		loop:       loop,
		verify:     true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreatePlan decomposes the objective into a new pending plan and persists
// it. A created plan always has at least one subtask.
func (p *Planner) CreatePlan(objective, contextID string) (*models.HierarchicalPlan, error) {
	subtasks, err := p.decomposer.Decompose(objective)
	if err != nil {
		return nil, fmt.Errorf("decompose objective: %w", err)
	}
	if len(subtasks) == 0 {
		return nil, fmt.Errorf("decomposer returned no subtasks for objective %q", objective)
	}

	plan := models.NewPlan(uuid.NewString(), objective, contextID, subtasks)
	if p.verify {
		if err := plan.VerifyDependencyClosure(); err != nil {
			return nil, fmt.Errorf("verify plan: %w", err)
		}
		if err := plan.VerifyAcyclic(); err != nil {
			return nil, fmt.Errorf("verify plan: %w", err)
		}
	}
	if err := models.ValidateStruct(plan); err != nil {
		return nil, fmt.Errorf("validate plan: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.CreatePlan(plan); err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}
	slog.Info("plan created",
		"plan", plan.ID,
		"objective", objective,
		"subtasks", len(plan.Subtasks))
	return plan, nil
}

// GetPlan retrieves a plan by id.
func (p *Planner) GetPlan(id string) (*models.HierarchicalPlan, error) {
	return p.store.GetPlan(id)
}

// ListPlans returns plans in creation order. An empty status lists everything.
func (p *Planner) ListPlans(status models.PlanStatus) ([]*models.HierarchicalPlan, error) {
	if status == "" {
		return p.store.ListPlans(nil)
	}
	return p.store.ListPlans(func(plan *models.HierarchicalPlan) bool {
		return plan.Status == status
	})
}

// CancelPlan marks a plan cancelled and persists it. Cancelling an already
// cancelled plan is a no-op; cancelling a completed plan fails.
func (p *Planner) CancelPlan(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := p.store.GetPlan(id)
	if err != nil {
		return err
	}
	if plan.Status == models.PlanCancelled {
		return nil
	}
	if err := plan.Cancel(); err != nil {
		return err
	}
	if err := p.store.UpdatePlan(plan); err != nil {
		return fmt.Errorf("persist cancellation of plan %s: %w", id, err)
	}
	slog.Info("plan cancelled", "plan", id)
	return nil
}

// StartPlan moves a pending plan to in_progress after its first subtasks
// have been dispatched. Cancelled plans are left untouched.
func (p *Planner) StartPlan(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := p.store.GetPlan(id)
	if err != nil {
		return err
	}
	if plan.Status != models.PlanPending {
		return nil
	}
	plan.RecomputeStatus()
	if err := p.store.UpdatePlan(plan); err != nil {
		return fmt.Errorf("persist start of plan %s: %w", id, err)
	}
	return nil
}

// MarkSubtasksStarted transitions the given subtasks to in_progress and
// persists the plan. The monitor calls this after dispatching them.
func (p *Planner) MarkSubtasksStarted(planID string, subtaskIDs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := p.store.GetPlan(planID)
	if err != nil {
		return err
	}
	for _, id := range subtaskIDs {
		st := plan.Subtask(id)
		if st == nil {
			return fmt.Errorf("plan %s: subtask %s not found", planID, id)
		}
		if err := st.MarkStarted(); err != nil {
			return err
		}
	}
	plan.Touch()
	if err := p.store.UpdatePlan(plan); err != nil {
		return fmt.Errorf("persist plan %s: %w", planID, err)
	}
	return nil
}

// Progress reports a snapshot of the plan's subtask counts.
func (p *Planner) Progress(id string) (Progress, error) {
	plan, err := p.store.GetPlan(id)
	if err != nil {
		return Progress{}, err
	}
	counts := plan.CountByStatus()
	prog := Progress{
		PlanID:     plan.ID,
		Objective:  plan.Objective,
		Status:     plan.Status,
		Total:      len(plan.Subtasks),
		Completed:  counts[models.SubtaskCompleted],
		InProgress: counts[models.SubtaskInProgress],
		Pending:    counts[models.SubtaskPending],
		Failed:     counts[models.SubtaskFailed],
		Skipped:    counts[models.SubtaskSkipped],
		Complete:   plan.IsComplete(),
	}
	if prog.Total > 0 {
		prog.Percent = float64(prog.Completed) / float64(prog.Total) * 100
	}
	return prog, nil
}

// ProcessSubtaskOutput runs the evaluation loop for one subtask completion
// and persists the resulting plan state. Completions against cancelled plans
// are ignored.
func (p *Planner) ProcessSubtaskOutput(planID, subtaskID, output string, criteria *models.EvaluationCriteria) (Outcome, *models.EvaluationResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := p.store.GetPlan(planID)
	if err != nil {
		return OutcomeNone, nil, err
	}
	if plan.Status == models.PlanCancelled {
		slog.Debug("completion ignored for cancelled plan", "plan", planID, "subtask", subtaskID)
		return OutcomeNone, nil, nil
	}
	subtask := plan.Subtask(subtaskID)
	if subtask == nil {
		return OutcomeNone, nil, fmt.Errorf("plan %s: subtask %s not found", planID, subtaskID)
	}

	outcome, result, err := p.loop.ProcessCompletion(plan, subtask, output, criteria)
	if err != nil {
		return outcome, result, err
	}
	if err := p.store.UpdatePlan(plan); err != nil {
		return outcome, result, fmt.Errorf("persist plan %s: %w", planID, err)
	}
	return outcome, result, nil
}
