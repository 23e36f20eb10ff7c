/*
Copyright © 2025 Gary Zero
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gary-zero/hierplan/internal/planner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can create
and manage plans.

The MCP server runs over stdin/stdout and provides tools for:
- Creating a plan from an objective
- Getting a plan's status and progress
- Listing plans
- Cancelling a plan
- Updating planning configuration

The server will run until the client disconnects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServer(ctx context.Context) error {
	planStore, err := GetPlanStore()
	if err != nil {
		return fmt.Errorf("failed to initialize plan store: %w", err)
	}
	defer func() { _ = planStore.Close() }()

	p := buildPlanner(planStore)

	impl := &mcp.Implementation{
		Name:    "hierplan",
		Version: version,
	}
	server := mcp.NewServer(impl, &mcp.ServerOptions{})

	if err := registerMCPTools(server, p); err != nil {
		return fmt.Errorf("failed to register MCP tools: %w", err)
	}

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func registerMCPTools(server *mcp.Server, p *planner.Planner) error {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create-plan",
		Description: "Decompose a free-text objective into a plan of dependency-linked subtasks. Returns the created plan with its subtasks and their recommended tools.",
	}, createPlanHandler(p))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get-plan-status",
		Description: "Get a plan with its progress snapshot: per-status subtask counts, completion percentage, and the completion flag.",
	}, getPlanStatusHandler(p))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list-plans",
		Description: "List plans in creation order. Optionally filter by status (pending, in_progress, completed, failed, cancelled).",
	}, listPlansHandler(p))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel-plan",
		Description: "Cancel a plan. Cancellation is terminal and blocks further scheduling; completed plans cannot be cancelled.",
	}, cancelPlanHandler(p))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update-configuration",
		Description: "Update one recognized planning configuration key: auto_planning_enabled, max_recursion_depth, max_subtasks, verification_enabled, retry_failed_subtasks.",
	}, updateConfigurationHandler())

	return nil
}

func logError(err error) {
	if viper.GetBool("verbose") {
		log.Printf("[MCP ERROR] %v", err)
	}
}

func logToolCall(toolName string, params interface{}) {
	if viper.GetBool("verbose") {
		log.Printf("[MCP TOOL] %s called with params: %+v", toolName, params)
	}
}
