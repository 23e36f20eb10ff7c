// Package evaluate scores subtask output against generic and tool-specific
// heuristics and decides success, failure, or retry.
//
// Scoring is additive from a neutral 0.5 and clamped to [0, 1] at the end.
// Scores in [0.5, 0.7) are a deliberate dead zone: neither a success nor a
// retry. The evaluation loop accepts such output rather than blocking the
// plan. Do not "fix" this by collapsing the thresholds.
package evaluate

import (
	"strings"
	"sync"

	"github.com/gary-zero/hierplan/models"
)

// DefaultMaxHistory caps retained evaluation results per subtask id.
const DefaultMaxHistory = 20

// Evaluator scores a (subtask, output) pair. Implementations must return
// results satisfying the threshold invariants in models.EvaluationResult;
// the heuristic evaluator stands in for LLM-driven review and can be swapped
// out behind this interface.
type Evaluator interface {
	Evaluate(subtask *models.Subtask, output string, criteria *models.EvaluationCriteria) *models.EvaluationResult
}

// HeuristicEvaluator is the rule-based reference evaluator. It keeps a
// bounded per-subtask evaluation history; concurrent Evaluate calls are safe.
type HeuristicEvaluator struct {
	mu         sync.Mutex
	history    map[string][]*models.EvaluationResult
	maxHistory int
}

// Option configures a HeuristicEvaluator.
type Option func(*HeuristicEvaluator)

// WithMaxHistory overrides the per-subtask history cap. n <= 0 disables
// history retention entirely.
func WithMaxHistory(n int) Option {
	return func(e *HeuristicEvaluator) {
		e.maxHistory = n
	}
}

// NewHeuristicEvaluator creates an evaluator with an empty history.
func NewHeuristicEvaluator(opts ...Option) *HeuristicEvaluator {
	e := &HeuristicEvaluator{
		history:    make(map[string][]*models.EvaluationResult),
		maxHistory: DefaultMaxHistory,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores the output and records the result in the subtask's history.
func (e *HeuristicEvaluator) Evaluate(subtask *models.Subtask, output string, criteria *models.EvaluationCriteria) *models.EvaluationResult {
	result := e.score(subtask, output, criteria)
	e.record(subtask.ID, result)
	return result
}

func (e *HeuristicEvaluator) score(subtask *models.Subtask, output string, criteria *models.EvaluationCriteria) *models.EvaluationResult {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		// Short-circuit: nothing to score.
		return &models.EvaluationResult{
			Success:       false,
			Score:         0.0,
			Feedback:      "subtask produced no output",
			RequiresRetry: true,
		}
	}

	result := &models.EvaluationResult{Score: 0.5}
	var feedback []string

	checkLength(result, &feedback, output, criteria)
	checkRequiredKeywords(result, &feedback, output, criteria)
	checkForbiddenKeywords(result, &feedback, output, criteria)
	checkFormat(result, &feedback, output, criteria)
	applyToolHeuristics(result, &feedback, subtask.Tool, output)

	if criteria != nil && criteria.CustomValidator != nil {
		if err := criteria.CustomValidator(output); err != nil {
			result.Score -= 0.2
			feedback = append(feedback, "custom validation failed: "+err.Error())
		}
	}

	result.Feedback = strings.Join(feedback, "; ")
	result.Finalize()
	return result
}

// checkLength applies the min/max length rules. Satisfied or absent
// constraints add the baseline 0.1.
func checkLength(result *models.EvaluationResult, feedback *[]string, output string, criteria *models.EvaluationCriteria) {
	if criteria != nil {
		if criteria.MinLength > 0 && len(output) < criteria.MinLength {
			result.Score -= 0.2
			*feedback = append(*feedback, "output is shorter than the required minimum length")
			result.Suggestions = append(result.Suggestions, "produce a more detailed answer")
			return
		}
		if criteria.MaxLength > 0 && len(output) > criteria.MaxLength {
			result.Score -= 0.1
			*feedback = append(*feedback, "output exceeds the maximum length")
			return
		}
	}
	result.Score += 0.1
}

func checkRequiredKeywords(result *models.EvaluationResult, feedback *[]string, output string, criteria *models.EvaluationCriteria) {
	if criteria == nil || len(criteria.RequiredKeywords) == 0 {
		return
	}
	lower := strings.ToLower(output)
	var missing []string
	for _, kw := range criteria.RequiredKeywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	if len(missing) > 0 {
		result.Score -= 0.3
		msg := "missing required keywords: " + strings.Join(missing, ", ")
		*feedback = append(*feedback, msg)
		result.Suggestions = append(result.Suggestions, "address the topics: "+strings.Join(missing, ", "))
		return
	}
	result.Score += 0.2
}

func checkForbiddenKeywords(result *models.EvaluationResult, feedback *[]string, output string, criteria *models.EvaluationCriteria) {
	if criteria == nil || len(criteria.ForbiddenKeywords) == 0 {
		return
	}
	lower := strings.ToLower(output)
	var present []string
	for _, kw := range criteria.ForbiddenKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			present = append(present, kw)
		}
	}
	if len(present) > 0 {
		result.Score -= 0.2
		*feedback = append(*feedback, "contains forbidden keywords: "+strings.Join(present, ", "))
	}
}

func checkFormat(result *models.EvaluationResult, feedback *[]string, output string, criteria *models.EvaluationCriteria) {
	if criteria == nil || criteria.ExpectedFormat == "" {
		return
	}
	if matchesFormat(output, criteria.ExpectedFormat) {
		result.Score += 0.2
		return
	}
	result.Score -= 0.3
	*feedback = append(*feedback, "output does not look like "+string(criteria.ExpectedFormat))
	result.Suggestions = append(result.Suggestions, "reformat the output as "+string(criteria.ExpectedFormat))
}

func (e *HeuristicEvaluator) record(subtaskID string, result *models.EvaluationResult) {
	if e.maxHistory <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	entries := append(e.history[subtaskID], result)
	if len(entries) > e.maxHistory {
		entries = entries[len(entries)-e.maxHistory:]
	}
	e.history[subtaskID] = entries
}

// History returns a copy of the retained evaluation results for a subtask,
// oldest first.
func (e *HeuristicEvaluator) History(subtaskID string) []*models.EvaluationResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*models.EvaluationResult(nil), e.history[subtaskID]...)
}
