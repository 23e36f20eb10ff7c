/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gary-zero/hierplan/internal/adjust"
	"github.com/gary-zero/hierplan/internal/decompose"
	"github.com/gary-zero/hierplan/internal/evaluate"
	"github.com/gary-zero/hierplan/internal/planner"
	"github.com/gary-zero/hierplan/internal/schedule"
	"github.com/gary-zero/hierplan/internal/taskstore"
	"github.com/gary-zero/hierplan/models"
	"github.com/gary-zero/hierplan/store"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// ErrNoPlansFound is returned when an interactive selection is attempted
	// but no plans are available.
	ErrNoPlansFound = errors.New("no plans found matching your criteria")
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hierplan",
	Short: "hierplan turns objectives into dependency-aware plans and tracks their execution.",
	Long: `hierplan decomposes free-text objectives into plans of dependency-linked
subtasks, evaluates subtask outputs with quality heuristics, and adjusts
plans when subtasks fail. Plans can be created, inspected, cancelled, and
executed from the command line or exposed to AI assistants over MCP.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.hierplan.yaml or ./.hierplan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initLogging routes slog through stderr; debug level when verbose.
func initLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetPlanStore initializes the file-backed plan store from the configuration.
// The caller must Close it.
func GetPlanStore() (store.PlanStore, error) {
	config := GetConfig()
	s := store.NewFilePlanStore()
	if err := s.Initialize(config.Data.File, config.Data.Format); err != nil {
		return nil, fmt.Errorf("failed to initialize plan store at %s: %w", config.Data.File, err)
	}
	return s, nil
}

// buildPlanner assembles the planning stack on top of a store using the
// configured knobs.
func buildPlanner(st store.PlanStore) *planner.Planner {
	config := GetConfig()
	evaluator := evaluate.NewHeuristicEvaluator(
		evaluate.WithMaxHistory(config.Evaluation.MaxHistoryPerSubtask))
	loop := planner.NewLoop(evaluator, adjust.New(), config.Planning.RetryFailedSubtasks)
	decomposer := decompose.NewRuleDecomposer(
		decompose.WithMaxSubtasks(config.Planning.MaxSubtasks))
	return planner.NewPlanner(st, decomposer, loop,
		planner.WithVerification(config.Planning.VerificationEnabled))
}

// buildMonitor wires a monitor over the planner and a task store.
func buildMonitor(p *planner.Planner, tasks taskstore.TaskStore) *schedule.Monitor {
	delay := time.Duration(GetConfig().Scheduler.DepthDelayMinutes) * time.Minute
	return schedule.NewMonitor(p, tasks, schedule.WithDepthDelay(delay))
}

// selectPlanInteractive presents a prompt to select a plan from a list,
// optionally filtered.
func selectPlanInteractive(planStore store.PlanStore, filterFn func(*models.HierarchicalPlan) bool, label string) (*models.HierarchicalPlan, error) {
	plans, err := planStore.ListPlans(filterFn)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans for selection: %w", err)
	}
	if len(plans) == 0 {
		return nil, ErrNoPlansFound
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   `> {{ .Objective | cyan }} (ID: {{ .ID }}, Status: {{ .Status }})`,
		Inactive: `  {{ .Objective | faint }} (ID: {{ .ID }}, Status: {{ .Status }})`,
		Selected: `{{ "✔" | green }} {{ .Objective | faint }} (ID: {{ .ID }})`,
	}

	searcher := func(input string, index int) bool {
		plan := plans[index]
		objective := strings.ToLower(plan.Objective)
		input = strings.ToLower(input)
		return strings.Contains(objective, input) || strings.Contains(plan.ID, input)
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     plans,
		Templates: templates,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	return plans[i], nil
}
