/*
Copyright © 2025 Gary Zero
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose    bool             `mapstructure:"verbose"`
	Config     string           `mapstructure:"config"`
	Planning   PlanningConfig   `mapstructure:"planning" validate:"required"`
	Evaluation EvaluationConfig `mapstructure:"evaluation" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
	Data       DataConfig       `mapstructure:"data" validate:"required"`
}

// PlanningConfig holds decomposition and plan-handling settings
type PlanningConfig struct {
	AutoPlanningEnabled bool `mapstructure:"autoPlanningEnabled"`
	MaxRecursionDepth   int  `mapstructure:"maxRecursionDepth" validate:"required,min=1,max=10"`
	MaxSubtasks         int  `mapstructure:"maxSubtasks" validate:"required,min=3,max=100"`
	VerificationEnabled bool `mapstructure:"verificationEnabled"`
	RetryFailedSubtasks bool `mapstructure:"retryFailedSubtasks"`
}

// EvaluationConfig holds evaluator settings
type EvaluationConfig struct {
	// MaxHistoryPerSubtask caps stored evaluation results per subtask.
	// Zero disables history recording entirely.
	MaxHistoryPerSubtask int `mapstructure:"maxHistoryPerSubtask" validate:"min=0,max=1000"`
}

// SchedulerConfig holds dispatch settings
type SchedulerConfig struct {
	// DepthDelayMinutes staggers the requested start time of a subtask by
	// its dependency depth. Zero disables staggering.
	DepthDelayMinutes int `mapstructure:"depthDelayMinutes" validate:"min=0,max=1440"`
}

// DataConfig holds plan storage configuration
type DataConfig struct {
	File   string `mapstructure:"file" validate:"required"`
	Format string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
}
