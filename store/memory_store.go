package store

import (
	"fmt"
	"sync"

	"github.com/gary-zero/hierplan/models"
)

// MemoryPlanStore keeps plans in a process-local map guarded by a mutex.
// Insertion order is tracked separately so listings are stable.
type MemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[string]*models.HierarchicalPlan
	order []string
}

// NewMemoryPlanStore creates an empty in-memory store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{
		plans: make(map[string]*models.HierarchicalPlan),
	}
}

// CreatePlan adds a plan, failing on duplicate ids.
func (s *MemoryPlanStore) CreatePlan(plan *models.HierarchicalPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.ID]; exists {
		return fmt.Errorf("plan %s already exists", plan.ID)
	}
	s.plans[plan.ID] = plan
	s.order = append(s.order, plan.ID)
	return nil
}

// GetPlan retrieves a plan by id.
func (s *MemoryPlanStore) GetPlan(id string) (*models.HierarchicalPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", id, ErrPlanNotFound)
	}
	return plan, nil
}

// UpdatePlan is a no-op beyond existence checking: plans are held by
// reference, so mutations made under the planner's lock are already visible.
func (s *MemoryPlanStore) UpdatePlan(plan *models.HierarchicalPlan) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.plans[plan.ID]; !ok {
		return fmt.Errorf("plan %s: %w", plan.ID, ErrPlanNotFound)
	}
	return nil
}

// DeletePlan removes a plan by id.
func (s *MemoryPlanStore) DeletePlan(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return fmt.Errorf("plan %s: %w", id, ErrPlanNotFound)
	}
	delete(s.plans, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListPlans returns plans in creation order, optionally filtered.
func (s *MemoryPlanStore) ListPlans(filterFn func(*models.HierarchicalPlan) bool) ([]*models.HierarchicalPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.HierarchicalPlan, 0, len(s.order))
	for _, id := range s.order {
		plan := s.plans[id]
		if filterFn == nil || filterFn(plan) {
			result = append(result, plan)
		}
	}
	return result, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryPlanStore) Close() error {
	return nil
}
