package types

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func validConfig() AppConfig {
	return AppConfig{
		Planning: PlanningConfig{
			AutoPlanningEnabled: true,
			MaxRecursionDepth:   3,
			MaxSubtasks:         15,
			VerificationEnabled: true,
			RetryFailedSubtasks: true,
		},
		Evaluation: EvaluationConfig{MaxHistoryPerSubtask: 20},
		Scheduler:  SchedulerConfig{DepthDelayMinutes: 5},
		Data:       DataConfig{File: "plans.json", Format: "json"},
	}
}

func TestAppConfigValidation(t *testing.T) {
	v := validator.New()

	cfg := validConfig()
	if err := v.Struct(cfg); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = validConfig()
	cfg.Data.Format = "xml"
	if err := v.Struct(cfg); err == nil {
		t.Error("unsupported data format accepted")
	}

	cfg = validConfig()
	cfg.Planning.MaxSubtasks = 1
	if err := v.Struct(cfg); err == nil {
		t.Error("maxSubtasks below floor accepted")
	}

	cfg = validConfig()
	cfg.Planning.MaxRecursionDepth = 0
	if err := v.Struct(cfg); err == nil {
		t.Error("zero recursion depth accepted")
	}
}
