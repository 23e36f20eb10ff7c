/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/gary-zero/hierplan/models"
	"github.com/spf13/cobra"
)

var planContextID string

// planCmd creates a plan from an objective.
var planCmd = &cobra.Command{
	Use:   "plan \"objective\"",
	Short: "Decompose an objective into a new plan",
	Long: `Decompose a free-text objective into a plan of dependency-linked subtasks
and persist it. The plan starts in pending status; use 'hierplan run' to
execute it or feed completions in through the MCP interface.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planStore, err := GetPlanStore()
		if err != nil {
			return err
		}
		defer func() { _ = planStore.Close() }()

		p := buildPlanner(planStore)
		plan, err := p.CreatePlan(args[0], planContextID)
		if err != nil {
			return fmt.Errorf("failed to create plan: %w", err)
		}

		fmt.Printf("Created plan %s (%d subtasks)\n\n", plan.ID, len(plan.Subtasks))
		printPlan(plan)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planContextID, "context", "", "correlation token for the calling session")
}

// printPlan renders a plan with its subtasks in insertion order.
func printPlan(plan *models.HierarchicalPlan) {
	fmt.Printf("Objective: %s\n", plan.Objective)
	fmt.Printf("Status:    %s\n", plan.Status)
	if plan.ContextID != "" {
		fmt.Printf("Context:   %s\n", plan.ContextID)
	}
	fmt.Println("Subtasks:")
	for i, st := range plan.Subtasks {
		tool := string(st.Tool)
		if tool == "" {
			tool = "auto"
		}
		fmt.Printf("  %2d. [%s] %s (tool: %s)\n", i+1, st.Status, st.Name, tool)
		if len(st.Dependencies) > 0 {
			fmt.Printf("      depends on: %s\n", strings.Join(shortIDs(plan, st.Dependencies), ", "))
		}
		if st.Error != "" {
			fmt.Printf("      error: %s\n", st.Error)
		}
	}
}

// shortIDs renders dependency ids as subtask names when resolvable.
func shortIDs(plan *models.HierarchicalPlan, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if st := plan.Subtask(id); st != nil {
			out = append(out, st.Name)
		} else {
			out = append(out, id)
		}
	}
	return out
}
