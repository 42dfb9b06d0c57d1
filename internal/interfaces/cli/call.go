package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

// CallFlags holds command-line flags for the call command
type CallFlags struct {
	ArgsJSON string
	Timeout  time.Duration
	JSON     bool
}

// NewCallCommand creates the call command
func NewCallCommand(a *app) *cobra.Command {
	flags := &CallFlags{}

	cmd := &cobra.Command{
		Use:   "call <service> <tool> [key=value...]",
		Short: "Invoke a tool on a configured service",
		Long: `Invoke a tool on one of the configured MCP services and print its result.

Arguments are given as key=value pairs. Types declared in the service's tool
schema are honoured; other values are inferred (numbers, booleans, JSON).

Examples:
  mcpcall call fetch fetch url=https://example.com max_length=2000
  mcpcall call deepwiki deepwiki_fetch url=https://deepwiki.org/owner/repo mode=pages
  mcpcall call fetch fetch --args-json '{"url":"https://example.com"}' --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, a, flags, args[0], args[1], args[2:])
		},
	}

	cmd.Flags().StringVar(&flags.ArgsJSON, "args-json", "", "Tool arguments as a JSON object")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Result timeout for this call (default is the service's)")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the result as JSON")

	return cmd
}

func runCall(cmd *cobra.Command, a *app, flags *CallFlags, serviceKey, tool string, pairs []string) error {
	client := a.container.Client

	var schema service.ToolSchema
	if desc, ok := client.Registry().Lookup(serviceKey); ok {
		schema, _ = desc.Schema(tool)
	}

	toolArgs, err := ParseToolArgs(pairs, flags.ArgsJSON, schema)
	if err != nil {
		return fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	result := client.CallWithTimeout(cmd.Context(), serviceKey, tool, toolArgs, flags.Timeout)
	return a.report(result, flags.JSON)
}
