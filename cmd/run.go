/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/gary-zero/hierplan/internal/schedule"
	"github.com/gary-zero/hierplan/internal/taskstore"
	"github.com/gary-zero/hierplan/store"
	"github.com/spf13/cobra"
)

// runCmd executes a plan with the built-in simulated executor. Real
// deployments drive plans through the MCP interface instead; this command
// exercises the full dispatch and evaluation loop locally.
var runCmd = &cobra.Command{
	Use:   "run <plan-id | \"objective\">",
	Short: "Execute a plan with the built-in simulated executor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planStore, err := GetPlanStore()
		if err != nil {
			return err
		}
		defer func() { _ = planStore.Close() }()

		p := buildPlanner(planStore)

		plan, err := p.GetPlan(args[0])
		if errors.Is(err, store.ErrPlanNotFound) {
			// The argument is not a known plan id; treat it as an objective.
			if !GetConfig().Planning.AutoPlanningEnabled {
				return fmt.Errorf("no plan with id %q and auto-planning is disabled; create one explicitly with 'hierplan plan'", args[0])
			}
			plan, err = p.CreatePlan(args[0], "")
			if err == nil {
				fmt.Printf("Created plan %s for objective %q\n\n", plan.ID, plan.Objective)
			}
		}
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var mon *schedule.Monitor
		tasks := taskstore.NewInMemoryStore(
			simulatedExecutor,
			func(externalID, output string, execErr error) {
				if execErr != nil {
					// An execution error counts as empty output and flows
					// through the normal retry path.
					output = ""
				}
				outcome, err := mon.HandleCompletion(ctx, externalID, output)
				if err != nil {
					fmt.Printf("  ! %v\n", err)
					return
				}
				fmt.Printf("  -> %s\n", outcome)
			},
		)
		mon = buildMonitor(p, tasks)

		if err := mon.StartPlan(ctx, plan.ID); err != nil {
			return fmt.Errorf("failed to start plan: %w", err)
		}
		if err := tasks.Drain(ctx); err != nil {
			return err
		}

		progress, err := p.Progress(plan.ID)
		if err != nil {
			return err
		}
		fmt.Printf("\nFinal status: %s (%d/%d completed", progress.Status, progress.Completed, progress.Total)
		if progress.Failed > 0 {
			fmt.Printf(", %d failed", progress.Failed)
		}
		if progress.Skipped > 0 {
			fmt.Printf(", %d skipped", progress.Skipped)
		}
		fmt.Println(")")
		return nil
	},
}

// simulatedExecutor produces a plausible plain-text result for a subtask.
func simulatedExecutor(desc taskstore.Descriptor) (string, error) {
	return fmt.Sprintf("Simulated result for %q: the step was carried out as described.", desc.Name), nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
