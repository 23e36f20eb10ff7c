/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd groups configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		config := GetConfig()
		fmt.Println("planning:")
		fmt.Printf("  autoPlanningEnabled: %v\n", config.Planning.AutoPlanningEnabled)
		fmt.Printf("  maxRecursionDepth:   %d\n", config.Planning.MaxRecursionDepth)
		fmt.Printf("  maxSubtasks:         %d\n", config.Planning.MaxSubtasks)
		fmt.Printf("  verificationEnabled: %v\n", config.Planning.VerificationEnabled)
		fmt.Printf("  retryFailedSubtasks: %v\n", config.Planning.RetryFailedSubtasks)
		fmt.Println("evaluation:")
		fmt.Printf("  maxHistoryPerSubtask: %d\n", config.Evaluation.MaxHistoryPerSubtask)
		fmt.Println("scheduler:")
		fmt.Printf("  depthDelayMinutes: %d\n", config.Scheduler.DepthDelayMinutes)
		fmt.Println("data:")
		fmt.Printf("  file:   %s\n", config.Data.File)
		fmt.Printf("  format: %s\n", config.Data.Format)
		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Printf("\nLoaded from: %s\n", file)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a recognized configuration key",
	Long: `Change one of the recognized planning keys and persist it:
auto_planning_enabled, max_recursion_depth, max_subtasks,
verification_enabled, retry_failed_subtasks.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := SetConfigValue(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
