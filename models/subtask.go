// Package models defines the core domain types for hierarchical planning:
// subtasks, plans, and evaluation results.
package models

import (
	"fmt"
	"time"
)

// SubtaskStatus represents the lifecycle state of a subtask.
type SubtaskStatus string

const (
	SubtaskPending    SubtaskStatus = "pending"     // Created, waiting for dispatch
	SubtaskInProgress SubtaskStatus = "in_progress" // Submitted to the external task store
	SubtaskCompleted  SubtaskStatus = "completed"   // Output accepted
	SubtaskFailed     SubtaskStatus = "failed"      // Output rejected with no remaining recovery
	SubtaskSkipped    SubtaskStatus = "skipped"     // Superseded by a retry or split
)

// IsTerminal reports whether the status permits no further transitions.
func (s SubtaskStatus) IsTerminal() bool {
	switch s {
	case SubtaskCompleted, SubtaskFailed, SubtaskSkipped:
		return true
	}
	return false
}

// Tool identifies a recommended execution capability for a subtask.
// The set below is the closed set the evaluator has heuristics for; any
// other non-empty value is passed through to the executor untouched.
type Tool string

const (
	ToolNone           Tool = "" // auto-select: downstream executor picks
	ToolSearchEngine   Tool = "search_engine"
	ToolWebpageContent Tool = "webpage_content_tool"
	ToolKnowledge      Tool = "knowledge_tool"
	ToolCodeExecution  Tool = "code_execution_tool"
	ToolResponse       Tool = "response"
)

// Known reports whether t is one of the capabilities with evaluator support.
func (t Tool) Known() bool {
	switch t {
	case ToolSearchEngine, ToolWebpageContent, ToolKnowledge, ToolCodeExecution, ToolResponse:
		return true
	}
	return false
}

// Subtask represents one unit of decomposed work within a plan.
type Subtask struct {
	ID           string        `json:"id" validate:"required,uuid4"`
	Name         string        `json:"name" validate:"required,max=200"`
	Description  string        `json:"description" validate:"required"`
	Tool         Tool          `json:"tool,omitempty"`
	Dependencies []string      `json:"dependencies,omitempty" validate:"dive,uuid4"`
	Status       SubtaskStatus `json:"status" validate:"required,oneof=pending in_progress completed failed skipped"`
	Result       string        `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at" validate:"required"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// NewSubtask creates a pending subtask with stamped creation time.
func NewSubtask(id, name, description string, tool Tool, deps []string) *Subtask {
	return &Subtask{
		ID:           id,
		Name:         name,
		Description:  description,
		Tool:         tool,
		Dependencies: append([]string(nil), deps...),
		Status:       SubtaskPending,
		CreatedAt:    time.Now(),
	}
}

// MarkStarted transitions the subtask to in_progress. Only pending subtasks
// may start; retries always create new subtasks rather than restarting old ones.
func (s *Subtask) MarkStarted() error {
	if s.Status != SubtaskPending {
		return fmt.Errorf("subtask %s: cannot start from status %q", s.ID, s.Status)
	}
	now := time.Now()
	s.Status = SubtaskInProgress
	s.StartedAt = &now
	return nil
}

// MarkCompleted records the output and transitions to completed.
func (s *Subtask) MarkCompleted(result string) error {
	if s.Status.IsTerminal() {
		return fmt.Errorf("subtask %s: cannot complete from terminal status %q", s.ID, s.Status)
	}
	now := time.Now()
	s.Status = SubtaskCompleted
	s.Result = result
	s.CompletedAt = &now
	return nil
}

// MarkFailed records the error text and transitions to failed.
func (s *Subtask) MarkFailed(errText string) error {
	if s.Status.IsTerminal() {
		return fmt.Errorf("subtask %s: cannot fail from terminal status %q", s.ID, s.Status)
	}
	now := time.Now()
	s.Status = SubtaskFailed
	s.Error = errText
	s.CompletedAt = &now
	return nil
}

// MarkSkipped transitions to skipped. Skipped subtasks stay in the plan as a
// record of the attempt; they are never deleted.
func (s *Subtask) MarkSkipped() error {
	if s.Status.IsTerminal() {
		return fmt.Errorf("subtask %s: cannot skip from terminal status %q", s.ID, s.Status)
	}
	s.Status = SubtaskSkipped
	return nil
}

// Revive resets the subtask to pending. This is the one sanctioned exception
// to terminal-state immutability: the add-preparation adjustment strategy
// re-queues the original subtask behind a new preparatory one.
func (s *Subtask) Revive() {
	s.Status = SubtaskPending
	s.Result = ""
	s.Error = ""
	s.StartedAt = nil
	s.CompletedAt = nil
}

// DependsOn reports whether id is among the subtask's dependencies.
func (s *Subtask) DependsOn(id string) bool {
	for _, d := range s.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}

// ReplaceDependency rewrites every dependency on oldID to newID.
func (s *Subtask) ReplaceDependency(oldID, newID string) {
	for i, d := range s.Dependencies {
		if d == oldID {
			s.Dependencies[i] = newID
		}
	}
}
