// Package planner provides the planning façade and the evaluation loop that
// advances subtask and plan state whenever a subtask produces output.
package planner

import (
	"fmt"
	"log/slog"

	"github.com/gary-zero/hierplan/internal/adjust"
	"github.com/gary-zero/hierplan/internal/evaluate"
	"github.com/gary-zero/hierplan/models"
)

// Outcome is the result of processing one subtask completion.
type Outcome string

const (
	// OutcomeNone means the completion was ignored (unknown task, cancelled plan).
	OutcomeNone Outcome = ""
	// OutcomeSuccess means the output scored at or above the success threshold.
	OutcomeSuccess Outcome = "success"
	// OutcomeAccepted means the output landed in the [0.5, 0.7) dead zone and
	// was accepted despite the low score. Deliberate leniency, not a bug: the
	// plan keeps moving instead of blocking on mediocre output.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeAdjusted means the plan topology was mutated to recover; the
	// original subtask was skipped or re-queued per the applied strategy.
	OutcomeAdjusted Outcome = "adjusted"
	// OutcomeFailed means no recovery was possible and the subtask failed.
	OutcomeFailed Outcome = "failed"
)

// Loop coordinates the evaluator and adjuster for one subtask completion at
// a time. Calls against the same plan must be serialized by the caller; the
// monitor does this.
type Loop struct {
	evaluator    evaluate.Evaluator
	adjuster     *adjust.Adjuster
	retryEnabled bool
}

// NewLoop creates an evaluation loop. retryEnabled gates the adjuster: when
// false, retry-worthy failures go straight to failed.
func NewLoop(evaluator evaluate.Evaluator, adjuster *adjust.Adjuster, retryEnabled bool) *Loop {
	return &Loop{
		evaluator:    evaluator,
		adjuster:     adjuster,
		retryEnabled: retryEnabled,
	}
}

// ProcessCompletion evaluates a subtask's output and advances subtask and
// plan state. The plan status is recomputed after every transition.
func (l *Loop) ProcessCompletion(plan *models.HierarchicalPlan, subtask *models.Subtask, output string, criteria *models.EvaluationCriteria) (Outcome, *models.EvaluationResult, error) {
	result := l.evaluator.Evaluate(subtask, output, criteria)
	slog.Debug("subtask evaluated",
		"plan", plan.ID,
		"subtask", subtask.ID,
		"score", result.Score,
		"success", result.Success,
		"requires_retry", result.RequiresRetry)

	switch {
	case result.Success:
		if err := subtask.MarkCompleted(output); err != nil {
			return OutcomeNone, result, err
		}
		plan.RecomputeStatus()
		return OutcomeSuccess, result, nil

	case result.RequiresRetry && l.retryEnabled:
		strategy, applied, err := l.adjuster.AdjustPlanAfterFailure(plan, subtask, result)
		if err != nil {
			return OutcomeNone, result, fmt.Errorf("adjust plan %s: %w", plan.ID, err)
		}
		if applied {
			slog.Info("plan adjusted after failure",
				"plan", plan.ID,
				"subtask", subtask.ID,
				"strategy", string(strategy))
			plan.RecomputeStatus()
			return OutcomeAdjusted, result, nil
		}
		if err := subtask.MarkFailed(result.Feedback); err != nil {
			return OutcomeNone, result, err
		}
		plan.RecomputeStatus()
		return OutcomeFailed, result, nil

	case result.RequiresRetry:
		if err := subtask.MarkFailed(result.Feedback); err != nil {
			return OutcomeNone, result, err
		}
		plan.RecomputeStatus()
		return OutcomeFailed, result, nil

	default:
		// Dead zone: accept the low-confidence output rather than block.
		if err := subtask.MarkCompleted(output); err != nil {
			return OutcomeNone, result, err
		}
		slog.Debug("low-confidence output accepted",
			"plan", plan.ID,
			"subtask", subtask.ID,
			"score", result.Score)
		plan.RecomputeStatus()
		return OutcomeAccepted, result, nil
	}
}
