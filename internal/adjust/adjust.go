// Package adjust mutates a plan's subtask topology in response to a failing
// evaluation. Exactly one strategy is applied per failure.
package adjust

import (
	"fmt"
	"strings"

	"github.com/gary-zero/hierplan/models"
	"github.com/google/uuid"
)

// splitThreshold is the description length above which a failing subtask is
// considered too complex and split instead of retried.
const splitThreshold = 200

// Strategy names the topology mutation applied after a failure.
type Strategy string

const (
	StrategyNone            Strategy = ""
	StrategyAlternativeTool Strategy = "alternative_tool"
	StrategySplit           Strategy = "split"
	StrategyPreparation     Strategy = "preparation"
)

// Adjuster applies recovery strategies to a plan. It is stateless; callers
// must serialize adjustments per plan because the underlying list mutations
// are not synchronized.
type Adjuster struct{}

// New creates an Adjuster.
func New() *Adjuster {
	return &Adjuster{}
}

// AdjustPlanAfterFailure picks and applies one strategy, in priority order:
//
//  1. The evaluation suggested an alternative tool: insert a retry subtask
//     using that tool.
//  2. The description is longer than splitThreshold: split it on " and "
//     conjunctions into a chain of smaller subtasks.
//  3. Otherwise: inject a preparatory subtask before the failed one and
//     re-queue it.
//
// It returns the strategy attempted and whether it was applied. applied is
// false only when the chosen strategy could not restructure the plan (a
// split that found no conjunction); the caller then marks the subtask failed.
// After any applied strategy, every dependency in the plan still resolves to
// a subtask in the plan.
func (a *Adjuster) AdjustPlanAfterFailure(plan *models.HierarchicalPlan, failed *models.Subtask, result *models.EvaluationResult) (Strategy, bool, error) {
	var (
		strategy Strategy
		applied  bool
		err      error
	)
	switch {
	case result != nil && result.AlternativeTool != models.ToolNone:
		strategy = StrategyAlternativeTool
		applied, err = a.retryWithAlternativeTool(plan, failed, result.AlternativeTool)
	case len(failed.Description) > splitThreshold:
		strategy = StrategySplit
		applied, err = a.splitComplexSubtask(plan, failed)
	default:
		strategy = StrategyPreparation
		applied, err = a.addPreparationSubtask(plan, failed)
	}
	if err != nil {
		return strategy, false, err
	}
	if applied {
		if cerr := plan.VerifyDependencyClosure(); cerr != nil {
			return strategy, false, fmt.Errorf("adjustment %q broke dependency closure: %w", strategy, cerr)
		}
	}
	return strategy, applied, nil
}

// retryWithAlternativeTool inserts a copy of the failed subtask that uses the
// suggested tool, rewires dependents onto the copy, and skips the original.
func (a *Adjuster) retryWithAlternativeTool(plan *models.HierarchicalPlan, failed *models.Subtask, tool models.Tool) (bool, error) {
	retry := models.NewSubtask(uuid.NewString(),
		"Retry: "+failed.Name,
		failed.Description,
		tool,
		failed.Dependencies)

	if err := plan.InsertAfter(failed.ID, retry); err != nil {
		return false, err
	}
	for _, st := range plan.Subtasks {
		if st.ID == retry.ID {
			continue
		}
		st.ReplaceDependency(failed.ID, retry.ID)
	}
	if err := failed.MarkSkipped(); err != nil {
		return false, err
	}
	plan.Touch()
	return true, nil
}

// splitComplexSubtask breaks the description on " and " conjunctions into a
// chain of smaller subtasks: part i+1 depends on part i, the first part
// inherits the original's dependencies, and dependents are rewired onto the
// last part. Returns false when the description has no usable conjunction.
func (a *Adjuster) splitComplexSubtask(plan *models.HierarchicalPlan, failed *models.Subtask) (bool, error) {
	var parts []string
	for _, raw := range strings.Split(failed.Description, " and ") {
		if p := strings.TrimSpace(raw); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return false, nil
	}

	subtasks := make([]*models.Subtask, len(parts))
	for i, part := range parts {
		deps := []string{}
		if i == 0 {
			deps = append(deps, failed.Dependencies...)
		} else {
			deps = append(deps, subtasks[i-1].ID)
		}
		subtasks[i] = models.NewSubtask(uuid.NewString(),
			fmt.Sprintf("%s (part %d)", failed.Name, i+1),
			part,
			failed.Tool,
			deps)
	}

	if err := plan.InsertBefore(failed.ID, subtasks...); err != nil {
		return false, err
	}
	last := subtasks[len(subtasks)-1]
	for _, st := range plan.Subtasks {
		if st == failed {
			continue
		}
		skip := false
		for _, created := range subtasks {
			if st.ID == created.ID {
				skip = true
				break
			}
		}
		if !skip {
			st.ReplaceDependency(failed.ID, last.ID)
		}
	}
	if err := failed.MarkSkipped(); err != nil {
		return false, err
	}
	plan.Touch()
	return true, nil
}

// addPreparationSubtask injects a knowledge-gathering subtask ahead of the
// failed one and re-queues the failed subtask behind it. This is the single
// sanctioned case of reviving a subtask instead of replacing it.
func (a *Adjuster) addPreparationSubtask(plan *models.HierarchicalPlan, failed *models.Subtask) (bool, error) {
	prep := models.NewSubtask(uuid.NewString(),
		"Prepare for: "+failed.Name,
		fmt.Sprintf("Gather the background and prerequisites needed to complete: %s", failed.Description),
		models.ToolKnowledge,
		failed.Dependencies)

	if err := plan.InsertBefore(failed.ID, prep); err != nil {
		return false, err
	}
	failed.Dependencies = []string{prep.ID}
	failed.Revive()
	plan.Touch()
	return true, nil
}
