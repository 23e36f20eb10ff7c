// Package decompose turns a free-text objective into an ordered,
// dependency-linked list of subtasks.
//
// The rule-based decomposer matches the objective against a small set of
// intent patterns in priority order and falls back to a generic three-step
// plan when nothing matches. It stands in for LLM-driven decomposition; the
// Decomposer interface lets an LLM-backed implementation replace the rule
// table without touching the scheduler or adjuster.
package decompose

import (
	"fmt"
	"strings"

	"github.com/gary-zero/hierplan/models"
	"github.com/google/uuid"
)

// DefaultMaxSubtasks bounds the size of a generated plan.
const DefaultMaxSubtasks = 15

// Decomposer maps an objective to an initial subtask list with dependencies
// pre-wired into a DAG. Implementations must never return an empty list for
// a non-empty objective.
type Decomposer interface {
	Decompose(objective string) ([]*models.Subtask, error)
}

// RuleDecomposer is the keyword/pattern-based reference decomposer.
type RuleDecomposer struct {
	maxSubtasks int
}

// Option configures a RuleDecomposer.
type Option func(*RuleDecomposer)

// WithMaxSubtasks caps the number of subtasks a single decomposition may
// produce. Values below 3 are raised to 3 so the generic fallback still fits.
func WithMaxSubtasks(n int) Option {
	return func(d *RuleDecomposer) {
		if n < 3 {
			n = 3
		}
		d.maxSubtasks = n
	}
}

// NewRuleDecomposer creates a decomposer with the default pattern table.
func NewRuleDecomposer(opts ...Option) *RuleDecomposer {
	d := &RuleDecomposer{maxSubtasks: DefaultMaxSubtasks}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decompose produces the subtask list for the objective. The returned
// subtasks are pending, carry fresh ids, and reference only ids within the
// returned list.
func (d *RuleDecomposer) Decompose(objective string) ([]*models.Subtask, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, fmt.Errorf("decompose: objective must not be empty")
	}

	lower := strings.ToLower(objective)

	var subtasks []*models.Subtask
	switch {
	case containsAny(lower, "research", "investigate", "find out", "look up") &&
		containsAny(lower, "summarize", "summary", "report", "findings", "slide", "presentation"):
		subtasks = d.researchPattern(objective, lower)
	case containsAny(lower, "create", "build", "generate", "write", "prepare") &&
		containsAny(lower, "slide deck", "slides", "presentation", "document", "article"):
		subtasks = d.authoringPattern(objective)
	case containsAny(lower, "code", "implement", "script", "program", "compile", "debug", "fix the bug"):
		subtasks = d.codePattern(objective)
	default:
		subtasks = d.genericPattern(objective)
	}

	if len(subtasks) == 0 {
		// Contract violation guard: a pattern must never yield nothing.
		subtasks = d.genericPattern(objective)
	}
	return subtasks, nil
}

// researchPattern fans out independent research branches from an initial
// search and fans them back into a synthesis step. Branches depend only on
// the search subtask; synthesis depends on every branch.
func (d *RuleDecomposer) researchPattern(objective, lower string) []*models.Subtask {
	search := models.NewSubtask(uuid.NewString(),
		"Search for sources",
		fmt.Sprintf("Search the web for up-to-date sources relevant to: %s", objective),
		models.ToolSearchEngine, nil)

	branches := []*models.Subtask{
		models.NewSubtask(uuid.NewString(),
			"Collect source content",
			"Retrieve the full content of the most promising sources from the search results",
			models.ToolWebpageContent, []string{search.ID}),
		models.NewSubtask(uuid.NewString(),
			"Extract key findings",
			"Extract the key facts, figures and claims from the gathered material",
			models.ToolKnowledge, []string{search.ID}),
	}
	// Keep room for search + synthesis (+ optional deliverable).
	maxBranches := d.maxSubtasks - 3
	if len(branches) > maxBranches {
		branches = branches[:maxBranches]
	}

	branchIDs := make([]string, len(branches))
	for i, b := range branches {
		branchIDs[i] = b.ID
	}
	if len(branchIDs) == 0 {
		branchIDs = []string{search.ID}
	}
	synthesis := models.NewSubtask(uuid.NewString(),
		"Summarize findings",
		fmt.Sprintf("Synthesize the research into a concise summary addressing: %s", objective),
		models.ToolKnowledge, branchIDs)

	subtasks := append([]*models.Subtask{search}, branches...)
	subtasks = append(subtasks, synthesis)

	if containsAny(lower, "slide", "presentation", "deck", "report") {
		deliver := models.NewSubtask(uuid.NewString(),
			"Produce the deliverable",
			"Turn the summary into the requested deliverable format",
			models.ToolResponse, []string{synthesis.ID})
		subtasks = append(subtasks, deliver)
	}
	return subtasks
}

// authoringPattern is a linear outline -> draft -> review chain.
func (d *RuleDecomposer) authoringPattern(objective string) []*models.Subtask {
	outline := models.NewSubtask(uuid.NewString(),
		"Outline the content",
		fmt.Sprintf("Draft an outline covering the required structure for: %s", objective),
		models.ToolKnowledge, nil)
	draft := models.NewSubtask(uuid.NewString(),
		"Draft the content",
		"Expand the outline into complete content for every section",
		models.ToolKnowledge, []string{outline.ID})
	review := models.NewSubtask(uuid.NewString(),
		"Review and finalize",
		"Review the draft against the objective and produce the final version",
		models.ToolResponse, []string{draft.ID})
	return []*models.Subtask{outline, draft, review}
}

// codePattern is a linear plan -> implement -> verify chain around the code
// execution capability.
func (d *RuleDecomposer) codePattern(objective string) []*models.Subtask {
	plan := models.NewSubtask(uuid.NewString(),
		"Plan the implementation",
		fmt.Sprintf("Work out the implementation approach for: %s", objective),
		models.ToolKnowledge, nil)
	implement := models.NewSubtask(uuid.NewString(),
		"Implement and run",
		"Write the code and execute it to produce the requested result",
		models.ToolCodeExecution, []string{plan.ID})
	verify := models.NewSubtask(uuid.NewString(),
		"Verify the result",
		"Run the implementation against the success criteria and confirm the output",
		models.ToolCodeExecution, []string{implement.ID})
	return []*models.Subtask{plan, implement, verify}
}

// genericPattern is the fallback used when no intent pattern matches:
// analyze -> execute -> verify. Decomposition must never come back empty.
func (d *RuleDecomposer) genericPattern(objective string) []*models.Subtask {
	analyze := models.NewSubtask(uuid.NewString(),
		"Analyze the objective",
		fmt.Sprintf("Break down what is required to accomplish: %s", objective),
		models.ToolKnowledge, nil)
	execute := models.NewSubtask(uuid.NewString(),
		"Execute the main task",
		fmt.Sprintf("Carry out the core work for: %s", objective),
		ToolFor(objective), []string{analyze.ID})
	verify := models.NewSubtask(uuid.NewString(),
		"Verify completion",
		"Check the result against the objective and confirm it is complete",
		models.ToolResponse, []string{execute.ID})
	return []*models.Subtask{analyze, execute, verify}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
