// Package store provides plan persistence behind the PlanStore interface.
// The planner façade only sees the interface; callers inject the in-memory
// store for a single process or the file-backed store to share plans across
// invocations.
package store

import (
	"errors"

	"github.com/gary-zero/hierplan/models"
)

// ErrPlanNotFound is returned when a plan id does not resolve.
var ErrPlanNotFound = errors.New("plan not found")

// PlanStore defines the contract for plan persistence.
type PlanStore interface {
	// CreatePlan adds a new plan. It fails if the id already exists.
	CreatePlan(plan *models.HierarchicalPlan) error

	// GetPlan retrieves a plan by id, or ErrPlanNotFound.
	GetPlan(id string) (*models.HierarchicalPlan, error)

	// UpdatePlan persists the current state of an existing plan.
	UpdatePlan(plan *models.HierarchicalPlan) error

	// DeletePlan removes a plan by id, or ErrPlanNotFound.
	DeletePlan(id string) error

	// ListPlans returns plans in creation order. If filterFn is nil, all
	// plans are returned.
	ListPlans(filterFn func(*models.HierarchicalPlan) bool) ([]*models.HierarchicalPlan, error)

	// Close releases any resources held by the store (file locks etc.).
	Close() error
}
