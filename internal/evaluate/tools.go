package evaluate

import (
	"strings"

	"github.com/gary-zero/hierplan/models"
)

// answerIndicators suggest the output actually answers a question rather
// than just restating one.
var answerIndicators = []string{"answer", "because", "therefore", "result", "conclusion"}

// applyToolHeuristics dispatches on the subtask's recommended capability.
// Unknown or absent tools get no adjustment: heuristic mismatches are
// absorbed silently rather than raised.
func applyToolHeuristics(result *models.EvaluationResult, feedback *[]string, tool models.Tool, output string) {
	lower := strings.ToLower(output)

	switch tool {
	case models.ToolSearchEngine:
		if strings.Contains(lower, "no results") || strings.Contains(lower, "not found") {
			result.Score -= 0.2
			*feedback = append(*feedback, "search returned no usable results")
			result.Suggestions = append(result.Suggestions, "retry by fetching a known page directly")
			result.AlternativeTool = models.ToolWebpageContent
		} else if strings.Contains(lower, "found") || strings.Contains(lower, "results") {
			result.Score += 0.1
		}
		if strings.Contains(lower, "http") || strings.Contains(lower, "www.") {
			result.Score += 0.1
		} else {
			*feedback = append(*feedback, "no source URLs in the search output")
		}

	case models.ToolWebpageContent:
		if len(output) > 500 {
			result.Score += 0.1
		}
		if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
			result.Score -= 0.3
			*feedback = append(*feedback, "page retrieval reported an error")
			result.Suggestions = append(result.Suggestions, "check that the URL is valid and reachable")
		}

	case models.ToolCodeExecution:
		if strings.Contains(lower, "error") || strings.Contains(lower, "traceback") {
			result.Score -= 0.4
			*feedback = append(*feedback, "execution output contains errors")
		} else if strings.Contains(lower, "success") || len(strings.TrimSpace(output)) > 0 {
			result.Score += 0.2
		}

	case models.ToolKnowledge:
		if len(output) > 100 {
			result.Score += 0.1
		}
		if strings.Contains(output, "?") && containsAnyOf(lower, answerIndicators) {
			result.Score += 0.1
		}
	}
}

func containsAnyOf(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
