/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"fmt"

	"github.com/gary-zero/hierplan/models"
	"github.com/spf13/cobra"
)

// showCmd displays one plan with its progress snapshot.
var showCmd = &cobra.Command{
	Use:   "show [plan-id]",
	Short: "Show a plan and its progress",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planStore, err := GetPlanStore()
		if err != nil {
			return err
		}
		defer func() { _ = planStore.Close() }()

		var plan *models.HierarchicalPlan
		if len(args) == 1 {
			plan, err = planStore.GetPlan(args[0])
		} else {
			plan, err = selectPlanInteractive(planStore, nil, "Select a plan to show")
		}
		if err != nil {
			return err
		}

		p := buildPlanner(planStore)
		progress, err := p.Progress(plan.ID)
		if err != nil {
			return err
		}

		printPlan(plan)
		fmt.Printf("\nProgress: %d/%d completed (%.0f%%)", progress.Completed, progress.Total, progress.Percent)
		if progress.Failed > 0 {
			fmt.Printf(", %d failed", progress.Failed)
		}
		if progress.Skipped > 0 {
			fmt.Printf(", %d skipped", progress.Skipped)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
