package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command
func NewConfigCommand(a *app) *cobra.Command {
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect the resolved configuration of mcpcall.

Values come from the config file, MCPCALL_* environment variables and the
global flags, in increasing order of precedence.`,
		Annotations: map[string]string{skipBootstrap: "true"},
	}

	// Add subcommands
	configCmd.AddCommand(NewConfigShowCommand(a))
	configCmd.AddCommand(NewConfigValidateCommand(a))
	configCmd.AddCommand(NewConfigPathCommand(a))

	return configCmd
}

// NewConfigShowCommand creates the show subcommand
func NewConfigShowCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := a.config.Summary()
			switch format {
			case "json":
				return writeJSON(a.out, summary)
			case "yaml":
				enc := yaml.NewEncoder(a.out)
				enc.SetIndent(2)
				if err := enc.Encode(summary); err != nil {
					return err
				}
				return enc.Close()
			case "text":
			default:
				return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
			}

			cfg := a.config
			fmt.Fprintln(a.out, titleStyle.Render("Current Configuration:"))
			fmt.Fprintf(a.out, "Config File: %s\n", orNotSet(summary.ConfigFile))
			fmt.Fprintf(a.out, "Log Level: %s (%s)\n", cfg.LogLevel, cfg.LogFormat)
			fmt.Fprintf(a.out, "Timeouts: connect %s, request %s, result %s\n",
				cfg.ConnectTimeout, cfg.RequestTimeout, cfg.ResultTimeout)
			fmt.Fprintf(a.out, "Services: %d total\n", summary.TotalServices)
			fmt.Fprintf(a.out, "  enabled:  %s\n", joinOrNone(summary.EnabledServices))
			fmt.Fprintf(a.out, "  disabled: %s\n", joinOrNone(summary.DisabledServices))

			features := make([]string, 0, len(summary.Features))
			for name := range summary.Features {
				features = append(features, name)
			}
			sort.Strings(features)
			for _, name := range features {
				fmt.Fprintf(a.out, "Feature %s: %t\n", name, summary.Features[name])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text, json, yaml)")
	return cmd
}

// NewConfigValidateCommand creates the validate subcommand
func NewConfigValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.config.Validate(); err != nil {
				fmt.Fprintln(a.out, failStyle.Render("Configuration is invalid:"))
				fmt.Fprintln(a.out, err)
				return fmt.Errorf("configuration validation failed")
			}
			fmt.Fprintln(a.out, okStyle.Render("Configuration is valid"))
			return nil
		},
	}
}

// NewConfigPathCommand creates the path subcommand
func NewConfigPathCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "Configuration file path: %s\n", orNotSet(a.config.ConfigFile))
			return nil
		},
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
