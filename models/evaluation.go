package models

// Score thresholds for evaluation outcomes. Scores in [RetryThreshold,
// SuccessThreshold) are a deliberate dead zone: not good enough to call a
// success, not bad enough to retry. The evaluation loop accepts such output
// rather than blocking the plan.
const (
	SuccessThreshold = 0.7
	RetryThreshold   = 0.5
)

// EvaluationResult is the outcome of scoring one subtask's output.
type EvaluationResult struct {
	Success         bool     `json:"success"`
	Score           float64  `json:"score" validate:"gte=0,lte=1"`
	Feedback        string   `json:"feedback"`
	Suggestions     []string `json:"suggestions,omitempty"`
	RequiresRetry   bool     `json:"requires_retry"`
	AlternativeTool Tool     `json:"alternative_tool,omitempty"`
}

// ClampScore bounds a raw additive score to [0, 1].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Finalize clamps the score and derives Success and RequiresRetry from the
// fixed thresholds. Every evaluator must call this before returning a result
// so the success/retry invariants hold for all produced results.
func (r *EvaluationResult) Finalize() {
	r.Score = ClampScore(r.Score)
	r.Success = r.Score >= SuccessThreshold
	r.RequiresRetry = r.Score < RetryThreshold
}

// InDeadZone reports whether the result landed between the retry and success
// thresholds, i.e. it will be accepted despite not being a success.
func (r *EvaluationResult) InDeadZone() bool {
	return !r.Success && !r.RequiresRetry
}

// OutputFormat names an expected shape for subtask output.
type OutputFormat string

const (
	FormatJSON     OutputFormat = "json"
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
	FormatCode     OutputFormat = "code"
)

// EvaluationCriteria is optional caller-supplied acceptance criteria for a
// subtask's output. Zero values mean "no constraint".
type EvaluationCriteria struct {
	MinLength         int          `json:"min_length,omitempty" validate:"gte=0"`
	MaxLength         int          `json:"max_length,omitempty" validate:"gte=0"`
	RequiredKeywords  []string     `json:"required_keywords,omitempty"`
	ForbiddenKeywords []string     `json:"forbidden_keywords,omitempty"`
	ExpectedFormat    OutputFormat `json:"expected_format,omitempty" validate:"omitempty,oneof=json markdown html code"`

	// CustomValidator, when set, is consulted after the built-in heuristics.
	// A returned error subtracts from the score and is surfaced as feedback.
	CustomValidator func(output string) error `json:"-"`
}
