package evaluate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/gary-zero/hierplan/models"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func subtaskWithTool(tool models.Tool) *models.Subtask {
	return models.NewSubtask("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", "step", "do the step", tool, nil)
}

func TestEvaluateEmptyOutput(t *testing.T) {
	e := NewHeuristicEvaluator()
	for _, output := range []string{"", "   ", "\n\t"} {
		result := e.Evaluate(subtaskWithTool(models.ToolNone), output, nil)
		if result.Score != 0.0 {
			t.Errorf("Evaluate(%q) score = %v, want 0.0", output, result.Score)
		}
		if result.Success {
			t.Errorf("Evaluate(%q) success = true, want false", output)
		}
		if !result.RequiresRetry {
			t.Errorf("Evaluate(%q) requiresRetry = false, want true", output)
		}
	}
}

func TestEvaluateScoreBounds(t *testing.T) {
	e := NewHeuristicEvaluator()
	outputs := []string{
		"plain text",
		"Found 10 results at http://example.com",
		"Traceback (most recent call last): error error error",
		strings.Repeat("long content ", 100),
		`{"ok": true}`,
	}
	tools := []models.Tool{
		models.ToolNone, models.ToolSearchEngine, models.ToolWebpageContent,
		models.ToolCodeExecution, models.ToolKnowledge, models.Tool("custom_thing"),
	}
	for _, output := range outputs {
		for _, tool := range tools {
			result := e.Evaluate(subtaskWithTool(tool), output, &models.EvaluationCriteria{
				RequiredKeywords:  []string{"results"},
				ForbiddenKeywords: []string{"traceback"},
				ExpectedFormat:    models.FormatJSON,
			})
			if result.Score < 0.0 || result.Score > 1.0 {
				t.Errorf("tool %q output %q: score %v out of [0,1]", tool, output, result.Score)
			}
			if result.Success != (result.Score >= models.SuccessThreshold) {
				t.Errorf("tool %q output %q: success inconsistent with score %v", tool, output, result.Score)
			}
			if result.RequiresRetry != (result.Score < models.RetryThreshold) {
				t.Errorf("tool %q output %q: requiresRetry inconsistent with score %v", tool, output, result.Score)
			}
		}
	}
}

func TestEvaluatePlainOutputLandsInDeadZone(t *testing.T) {
	e := NewHeuristicEvaluator()
	result := e.Evaluate(subtaskWithTool(models.ToolNone), "some unremarkable output", nil)
	if !approx(result.Score, 0.6) {
		t.Errorf("score = %v, want 0.6", result.Score)
	}
	if !result.InDeadZone() {
		t.Errorf("plain output should land in the dead zone, got %+v", result)
	}
}

func TestEvaluateSearchEngineNoResults(t *testing.T) {
	e := NewHeuristicEvaluator()
	result := e.Evaluate(subtaskWithTool(models.ToolSearchEngine), "No results found", nil)

	if result.Score >= models.RetryThreshold {
		t.Errorf("score = %v, want < %v", result.Score, models.RetryThreshold)
	}
	if !result.RequiresRetry {
		t.Error("requiresRetry = false, want true")
	}
	if result.AlternativeTool != models.ToolWebpageContent {
		t.Errorf("alternativeTool = %q, want webpage_content_tool", result.AlternativeTool)
	}
}

func TestEvaluateSearchEngineGoodResults(t *testing.T) {
	e := NewHeuristicEvaluator()
	result := e.Evaluate(subtaskWithTool(models.ToolSearchEngine),
		"Found 12 results, top hit: http://example.com/battery-tech", nil)
	if !approx(result.Score, 0.8) {
		t.Errorf("score = %v, want 0.8", result.Score)
	}
	if !result.Success {
		t.Error("success = false, want true")
	}
}

func TestEvaluateCodeExecution(t *testing.T) {
	e := NewHeuristicEvaluator()

	result := e.Evaluate(subtaskWithTool(models.ToolCodeExecution),
		"Traceback (most recent call last):\n  ValueError", nil)
	if !result.RequiresRetry {
		t.Errorf("traceback output should require retry, score = %v", result.Score)
	}

	result = e.Evaluate(subtaskWithTool(models.ToolCodeExecution), "build succeeded, 42 tests passed", nil)
	if !approx(result.Score, 0.8) {
		t.Errorf("clean execution score = %v, want 0.8", result.Score)
	}
}

func TestEvaluateWebpageContent(t *testing.T) {
	e := NewHeuristicEvaluator()

	long := strings.Repeat("paragraph of page text ", 30)
	result := e.Evaluate(subtaskWithTool(models.ToolWebpageContent), long, nil)
	if !approx(result.Score, 0.7) {
		t.Errorf("long page score = %v, want 0.7", result.Score)
	}

	result = e.Evaluate(subtaskWithTool(models.ToolWebpageContent), "error: connection refused", nil)
	if !result.RequiresRetry {
		t.Errorf("fetch error should require retry, score = %v", result.Score)
	}
	found := false
	for _, s := range result.Suggestions {
		if strings.Contains(s, "URL") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a URL-validity suggestion, got %v", result.Suggestions)
	}
}

func TestEvaluateKnowledgeTool(t *testing.T) {
	e := NewHeuristicEvaluator()
	output := "What is the capacity trend? The answer is that density improves roughly 5% a year because of cathode chemistry advances."
	result := e.Evaluate(subtaskWithTool(models.ToolKnowledge), output, nil)
	if !approx(result.Score, 0.8) {
		t.Errorf("score = %v, want 0.8", result.Score)
	}
}

func TestEvaluateRequiredKeywords(t *testing.T) {
	e := NewHeuristicEvaluator()
	criteria := &models.EvaluationCriteria{RequiredKeywords: []string{"lithium", "Density"}}

	result := e.Evaluate(subtaskWithTool(models.ToolNone), "lithium cells improved energy density", criteria)
	if !approx(result.Score, 0.8) {
		t.Errorf("all keywords present: score = %v, want 0.8", result.Score)
	}

	result = e.Evaluate(subtaskWithTool(models.ToolNone), "cells improved somewhat", criteria)
	if !approx(result.Score, 0.3) {
		t.Errorf("keywords missing: score = %v, want 0.3", result.Score)
	}
	if !strings.Contains(result.Feedback, "lithium") {
		t.Errorf("feedback should list missing keywords, got %q", result.Feedback)
	}
}

func TestEvaluateForbiddenKeywords(t *testing.T) {
	e := NewHeuristicEvaluator()
	criteria := &models.EvaluationCriteria{ForbiddenKeywords: []string{"lorem ipsum"}}
	result := e.Evaluate(subtaskWithTool(models.ToolNone), "Lorem Ipsum dolor sit amet", criteria)
	if !approx(result.Score, 0.4) {
		t.Errorf("score = %v, want 0.4", result.Score)
	}
}

func TestEvaluateLengthCriteria(t *testing.T) {
	e := NewHeuristicEvaluator()

	result := e.Evaluate(subtaskWithTool(models.ToolNone), "tiny", &models.EvaluationCriteria{MinLength: 100})
	if !approx(result.Score, 0.3) {
		t.Errorf("below min length: score = %v, want 0.3", result.Score)
	}

	result = e.Evaluate(subtaskWithTool(models.ToolNone), strings.Repeat("x", 50), &models.EvaluationCriteria{MaxLength: 10})
	if !approx(result.Score, 0.4) {
		t.Errorf("above max length: score = %v, want 0.4", result.Score)
	}

	result = e.Evaluate(subtaskWithTool(models.ToolNone), strings.Repeat("x", 50),
		&models.EvaluationCriteria{MinLength: 10, MaxLength: 100})
	if !approx(result.Score, 0.6) {
		t.Errorf("length in range: score = %v, want 0.6", result.Score)
	}
}

func TestEvaluateExpectedFormat(t *testing.T) {
	e := NewHeuristicEvaluator()
	cases := []struct {
		format models.OutputFormat
		output string
		match  bool
	}{
		{models.FormatJSON, `{"a": [1, 2]}`, true},
		{models.FormatJSON, "definitely not json", false},
		{models.FormatMarkdown, "# Title\n- item one\n- item two", true},
		{models.FormatMarkdown, "flat prose with nothing structural", false},
		{models.FormatHTML, "<html><body>hi</body></html>", true},
		{models.FormatHTML, "no angle brackets here", false},
		{models.FormatCode, "```go\nfunc main() {}\n```", true},
		{models.FormatCode, "plain sentence", false},
	}
	for _, tc := range cases {
		result := e.Evaluate(subtaskWithTool(models.ToolNone), tc.output, &models.EvaluationCriteria{ExpectedFormat: tc.format})
		want := 0.3
		if tc.match {
			want = 0.8
		}
		if !approx(result.Score, want) {
			t.Errorf("format %q output %q: score = %v, want %v", tc.format, tc.output, result.Score, want)
		}
	}
}

func TestEvaluateCustomValidator(t *testing.T) {
	e := NewHeuristicEvaluator()
	criteria := &models.EvaluationCriteria{
		CustomValidator: func(output string) error {
			if !strings.Contains(output, "sign-off") {
				return errors.New("missing sign-off")
			}
			return nil
		},
	}
	result := e.Evaluate(subtaskWithTool(models.ToolNone), "draft without approval", criteria)
	if !approx(result.Score, 0.4) {
		t.Errorf("score = %v, want 0.4", result.Score)
	}
	if !strings.Contains(result.Feedback, "missing sign-off") {
		t.Errorf("feedback should carry the validator error, got %q", result.Feedback)
	}
}

func TestEvaluationHistoryCapped(t *testing.T) {
	e := NewHeuristicEvaluator(WithMaxHistory(3))
	st := subtaskWithTool(models.ToolNone)
	for i := 0; i < 10; i++ {
		e.Evaluate(st, fmt.Sprintf("output number %d", i), nil)
	}
	history := e.History(st.ID)
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(history))
	}
}

func TestEvaluationHistoryDisabled(t *testing.T) {
	e := NewHeuristicEvaluator(WithMaxHistory(0))
	st := subtaskWithTool(models.ToolNone)
	e.Evaluate(st, "output", nil)
	if got := e.History(st.ID); len(got) != 0 {
		t.Errorf("history should be empty when disabled, got %d entries", len(got))
	}
}
