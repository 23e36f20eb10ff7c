package models

import (
	"fmt"
	"time"
)

// PlanStatus represents the lifecycle state of a plan.
type PlanStatus string

const (
	PlanPending    PlanStatus = "pending"     // Created, not yet dispatched
	PlanInProgress PlanStatus = "in_progress" // At least one subtask dispatched
	PlanCompleted  PlanStatus = "completed"   // Every subtask completed
	PlanFailed     PlanStatus = "failed"      // More than half the subtasks failed
	PlanCancelled  PlanStatus = "cancelled"   // Caller aborted; blocks further scheduling
)

// HierarchicalPlan is an objective plus its ordered, dependency-linked subtasks.
// Subtask order is insertion order and is used for display and as a tie-break
// only; execution order is governed by dependencies.
//
// A plan exclusively owns its subtasks and dependencies are intra-plan only.
// Mutating methods are not internally synchronized; callers must serialize
// mutations per plan (the planner façade does this).
type HierarchicalPlan struct {
	ID        string     `json:"id" validate:"required,uuid4"`
	Objective string     `json:"objective" validate:"required"`
	Subtasks  []*Subtask `json:"subtasks" validate:"required,min=1,dive"`
	Status    PlanStatus `json:"status" validate:"required,oneof=pending in_progress completed failed cancelled"`
	ContextID string     `json:"context_id,omitempty"`
	CreatedAt time.Time  `json:"created_at" validate:"required"`
	UpdatedAt time.Time  `json:"updated_at" validate:"required"`

	// byID caches subtask lookup; rebuilt lazily after structural mutation.
	byID map[string]*Subtask
}

// NewPlan creates a pending plan owning the given subtasks.
func NewPlan(id, objective, contextID string, subtasks []*Subtask) *HierarchicalPlan {
	now := time.Now()
	p := &HierarchicalPlan{
		ID:        id,
		Objective: objective,
		Subtasks:  subtasks,
		Status:    PlanPending,
		ContextID: contextID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.reindex()
	return p
}

func (p *HierarchicalPlan) reindex() {
	p.byID = make(map[string]*Subtask, len(p.Subtasks))
	for _, st := range p.Subtasks {
		p.byID[st.ID] = st
	}
}

// Subtask returns the subtask with the given id, or nil.
func (p *HierarchicalPlan) Subtask(id string) *Subtask {
	if p.byID == nil || len(p.byID) != len(p.Subtasks) {
		p.reindex()
	}
	return p.byID[id]
}

// indexOf returns the position of id in the ordered list, or -1.
func (p *HierarchicalPlan) indexOf(id string) int {
	for i, st := range p.Subtasks {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// InsertAfter inserts subtasks immediately after the subtask with anchorID,
// preserving insertion order for the rest of the list.
func (p *HierarchicalPlan) InsertAfter(anchorID string, subtasks ...*Subtask) error {
	i := p.indexOf(anchorID)
	if i < 0 {
		return fmt.Errorf("plan %s: anchor subtask %s not found", p.ID, anchorID)
	}
	p.insertAt(i+1, subtasks...)
	return nil
}

// InsertBefore inserts subtasks immediately before the subtask with anchorID.
func (p *HierarchicalPlan) InsertBefore(anchorID string, subtasks ...*Subtask) error {
	i := p.indexOf(anchorID)
	if i < 0 {
		return fmt.Errorf("plan %s: anchor subtask %s not found", p.ID, anchorID)
	}
	p.insertAt(i, subtasks...)
	return nil
}

func (p *HierarchicalPlan) insertAt(i int, subtasks ...*Subtask) {
	rest := append([]*Subtask(nil), p.Subtasks[i:]...)
	p.Subtasks = append(p.Subtasks[:i], append(subtasks, rest...)...)
	p.reindex()
	p.Touch()
}

// Touch updates the modification timestamp.
func (p *HierarchicalPlan) Touch() {
	p.UpdatedAt = time.Now()
}

// IsComplete reports whether every subtask reached completed.
func (p *HierarchicalPlan) IsComplete() bool {
	for _, st := range p.Subtasks {
		if st.Status != SubtaskCompleted {
			return false
		}
	}
	return len(p.Subtasks) > 0
}

// CountByStatus returns per-status subtask counts.
func (p *HierarchicalPlan) CountByStatus() map[SubtaskStatus]int {
	counts := make(map[SubtaskStatus]int, 5)
	for _, st := range p.Subtasks {
		counts[st.Status]++
	}
	return counts
}

// RecomputeStatus derives the plan status from its subtasks: completed when
// all subtasks completed, failed when more than half failed, otherwise
// in_progress. Cancelled plans are left untouched.
func (p *HierarchicalPlan) RecomputeStatus() PlanStatus {
	if p.Status == PlanCancelled {
		return p.Status
	}
	if p.IsComplete() {
		p.setStatus(PlanCompleted)
		return p.Status
	}
	failed := 0
	for _, st := range p.Subtasks {
		if st.Status == SubtaskFailed {
			failed++
		}
	}
	if failed*2 > len(p.Subtasks) {
		p.setStatus(PlanFailed)
	} else {
		p.setStatus(PlanInProgress)
	}
	return p.Status
}

func (p *HierarchicalPlan) setStatus(status PlanStatus) {
	if p.Status != status {
		p.Status = status
		p.Touch()
	}
}

// Cancel marks the plan cancelled. Completed plans cannot be cancelled.
func (p *HierarchicalPlan) Cancel() error {
	if p.Status == PlanCompleted {
		return fmt.Errorf("plan %s: cannot cancel a completed plan", p.ID)
	}
	p.setStatus(PlanCancelled)
	return nil
}

// VerifyDependencyClosure checks that every dependency id referenced anywhere
// in the plan resolves to a subtask present in the plan. The adjuster calls
// this after every topology mutation.
func (p *HierarchicalPlan) VerifyDependencyClosure() error {
	ids := make(map[string]bool, len(p.Subtasks))
	for _, st := range p.Subtasks {
		if st.ID == "" {
			return fmt.Errorf("plan %s: subtask with empty id", p.ID)
		}
		ids[st.ID] = true
	}
	for _, st := range p.Subtasks {
		for _, dep := range st.Dependencies {
			if !ids[dep] {
				return fmt.Errorf("plan %s: subtask %s depends on unknown subtask %s", p.ID, st.ID, dep)
			}
		}
	}
	return nil
}

// VerifyAcyclic detects dependency cycles among the plan's subtasks.
func (p *HierarchicalPlan) VerifyAcyclic() error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		visited[id] = true
		onStack[id] = true
		if st := p.Subtask(id); st != nil {
			for _, dep := range st.Dependencies {
				if !visited[dep] {
					if err := visit(dep); err != nil {
						return err
					}
				} else if onStack[dep] {
					return fmt.Errorf("plan %s: dependency cycle involving %s -> %s", p.ID, id, dep)
				}
			}
		}
		onStack[id] = false
		return nil
	}

	for _, st := range p.Subtasks {
		if !visited[st.ID] {
			if err := visit(st.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
