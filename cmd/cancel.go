/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"fmt"

	"github.com/gary-zero/hierplan/models"
	"github.com/spf13/cobra"
)

// cancelCmd cancels a plan.
var cancelCmd = &cobra.Command{
	Use:   "cancel [plan-id]",
	Short: "Cancel a plan",
	Long: `Cancel a plan. Cancellation is terminal and blocks further scheduling;
completed plans cannot be cancelled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planStore, err := GetPlanStore()
		if err != nil {
			return err
		}
		defer func() { _ = planStore.Close() }()

		planID := ""
		if len(args) == 1 {
			planID = args[0]
		} else {
			plan, err := selectPlanInteractive(planStore, func(p *models.HierarchicalPlan) bool {
				return p.Status != models.PlanCompleted && p.Status != models.PlanCancelled
			}, "Select a plan to cancel")
			if err != nil {
				return err
			}
			planID = plan.ID
		}

		p := buildPlanner(planStore)
		if err := p.CancelPlan(planID); err != nil {
			return fmt.Errorf("failed to cancel plan: %w", err)
		}
		fmt.Printf("Plan %s cancelled.\n", planID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
