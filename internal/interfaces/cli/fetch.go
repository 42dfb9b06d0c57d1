package cli

import (
	"github.com/spf13/cobra"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

// FetchFlags holds command-line flags for the fetch command
type FetchFlags struct {
	Direct    bool
	MaxLength int
	JSON      bool
}

// NewFetchCommand creates the fetch command
func NewFetchCommand(a *app) *cobra.Command {
	flags := &FetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Retrieve the content of a URL through the knowledge services",
		Long: `Retrieve the content of a URL.

DeepWiki pages are routed to the deepwiki service first and fall back to
the generic fetch service; every other URL goes straight to fetch.
Use --direct to skip routing and always use fetch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result call.Result
			if flags.Direct {
				result = a.container.Client.FetchURL(cmd.Context(), args[0], flags.MaxLength)
			} else {
				result = a.container.Knowledge.Fetch(cmd.Context(), args[0])
			}
			return a.report(result, flags.JSON)
		},
	}

	cmd.Flags().BoolVar(&flags.Direct, "direct", false, "Use the fetch service without routing")
	cmd.Flags().IntVar(&flags.MaxLength, "max-length", 0, "Maximum content length requested with --direct")
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the result as JSON")

	return cmd
}

// NewWikiCommand creates the wiki command
func NewWikiCommand(a *app) *cobra.Command {
	var (
		mode   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "wiki <url>",
		Short: "Retrieve a repository wiki from DeepWiki",
		Example: `  mcpcall wiki https://deepwiki.org/openai/openai-python
  mcpcall wiki https://deepwiki.org/openai/openai-python --mode pages`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := a.container.Client.DeepWiki(cmd.Context(), args[0], mode)
			return a.report(result, asJSON)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", service.DefaultWikiMode, "Wiki mode (aggregate or pages)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}
