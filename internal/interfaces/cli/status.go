package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vibedoc.ai/mcpcall/internal/application/services"
)

// NewStatusCommand creates the status command
func NewStatusCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe every enabled service with a small tool call",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := a.container.Prober.Probe(cmd.Context())
			if asJSON {
				return writeJSON(a.out, statuses)
			}
			fmt.Fprintln(a.out, renderStatusTable(statuses, -1))
			fmt.Fprintln(a.out, mutedStyle.Render(statusSummary(statuses)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statuses as JSON")
	return cmd
}

func statusSummary(statuses []services.ServiceStatus) string {
	var online, offline, skipped int
	for _, s := range statuses {
		switch {
		case s.Skipped:
			skipped++
		case s.Online:
			online++
		default:
			offline++
		}
	}
	return fmt.Sprintf("%d online, %d offline, %d skipped", online, offline, skipped)
}

// NewServicesCommand creates the services command
func NewServicesCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List configured services and their tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := a.container.Client.Registry()

			type serviceView struct {
				Key     string   `json:"key"`
				Name    string   `json:"name"`
				URL     string   `json:"url"`
				Enabled bool     `json:"enabled"`
				Tools   []string `json:"tools"`
			}
			views := make([]serviceView, 0, registry.Len())
			for _, key := range registry.Keys() {
				desc, _ := registry.Lookup(key)
				views = append(views, serviceView{
					Key:     desc.Key(),
					Name:    desc.Name(),
					URL:     desc.URL(),
					Enabled: desc.Enabled(),
					Tools:   desc.Tools(),
				})
			}

			if asJSON {
				return writeJSON(a.out, views)
			}
			for _, v := range views {
				state := okStyle.Render("enabled")
				if !v.Enabled {
					state = failStyle.Render("disabled")
				}
				fmt.Fprintf(a.out, "%s (%s) %s\n", titleStyle.Render(v.Key), v.Name, state)
				fmt.Fprintf(a.out, "  url:   %s\n", v.URL)
				tools := "(any)"
				if len(v.Tools) > 0 {
					tools = strings.Join(v.Tools, ", ")
				}
				fmt.Fprintf(a.out, "  tools: %s\n", tools)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the services as JSON")
	return cmd
}
