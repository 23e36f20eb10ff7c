/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"fmt"

	"github.com/gary-zero/hierplan/models"
	"github.com/spf13/cobra"
)

var listStatus string

// listCmd lists plans, optionally filtered by status.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		planStore, err := GetPlanStore()
		if err != nil {
			return err
		}
		defer func() { _ = planStore.Close() }()

		p := buildPlanner(planStore)
		plans, err := p.ListPlans(models.PlanStatus(listStatus))
		if err != nil {
			return fmt.Errorf("failed to list plans: %w", err)
		}
		if len(plans) == 0 {
			fmt.Println("No plans found.")
			return nil
		}

		for _, plan := range plans {
			counts := plan.CountByStatus()
			fmt.Printf("%s  [%s]  %s  (%d/%d completed)\n",
				plan.ID, plan.Status, plan.Objective,
				counts[models.SubtaskCompleted], len(plan.Subtasks))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by plan status (pending, in_progress, completed, failed, cancelled)")
}
