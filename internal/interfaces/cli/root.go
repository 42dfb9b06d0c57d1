package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vibedoc.ai/mcpcall/internal/application/services"
	"vibedoc.ai/mcpcall/internal/config"
	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/metrics"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Recorder
	Client    *services.ToolCallClient
	Knowledge *services.KnowledgeService
	Prober    *services.StatusProber
}

// Bootstrap builds the container once configuration is resolved
type Bootstrap func(cfg *config.Config) (*CLIContainer, error)

// app carries state shared by every command of one invocation
type app struct {
	bootstrap  Bootstrap
	loader     *config.Loader
	config     *config.Config
	container  *CLIContainer
	configPath string
	metricsOut string
	out        io.Writer
	// callFailed is set by commands whose tool call failed so the error is
	// returned only after teardown has run
	callFailed bool
}

// NewRootCommand builds the command tree. The container is created in
// PersistentPreRunE so that --config and the other global flags apply.
func NewRootCommand(bootstrap Bootstrap) *cobra.Command {
	a := &app{bootstrap: bootstrap, loader: config.NewLoader(), out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:   "mcpcall",
		Short: "Call tools on remote MCP services over SSE",
		Long: `mcpcall invokes tools exposed by remote Model Context Protocol services
that speak the SSE transport: it negotiates a session, dispatches a
tools/call request and waits for the result on the event stream.

Every call ends with a structured result; failures never abort the
calling workflow.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.teardown(); err != nil {
				return err
			}
			if a.callFailed {
				return ErrCallFailed
			}
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file path (default is $HOME/.mcpcall/config.yaml)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.Duration("result-timeout", 0, "Result timeout for services that do not set their own")
	flags.Bool("strict-args", false, "Validate tool arguments against the service schema before sending")
	flags.StringVar(&a.metricsOut, "metrics-out", "", "Write Prometheus metrics to this file when the command ends")

	v := a.loader.Viper()
	for key, flag := range map[string]string{
		"log_level":      "log-level",
		"log_format":     "log-format",
		"result_timeout": "result-timeout",
		"strict_args":    "strict-args",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	rootCmd.AddCommand(NewCallCommand(a))
	rootCmd.AddCommand(NewFetchCommand(a))
	rootCmd.AddCommand(NewWikiCommand(a))
	rootCmd.AddCommand(NewStatusCommand(a))
	rootCmd.AddCommand(NewServicesCommand(a))
	rootCmd.AddCommand(NewDashboardCommand(a))
	rootCmd.AddCommand(NewConfigCommand(a))

	return rootCmd
}

// skipBootstrap marks commands that only need the loaded configuration
const skipBootstrap = "skip-bootstrap"

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loader.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = cfg
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipBootstrap] == "true" {
			return nil
		}
	}
	container, err := a.bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	a.container = container
	return nil
}

// report prints r and records a failed call instead of returning it, since
// cobra skips PersistentPostRunE when RunE fails
func (a *app) report(r call.Result, asJSON bool) error {
	err := printResult(a.out, r, asJSON)
	if errors.Is(err, ErrCallFailed) {
		a.callFailed = true
		return nil
	}
	return err
}

func (a *app) teardown() error {
	if a.container == nil {
		return nil
	}
	if a.container.Logger != nil {
		_ = a.container.Logger.Sync()
	}
	if a.metricsOut == "" || a.container.Metrics == nil {
		return nil
	}
	f, err := os.Create(a.metricsOut)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer f.Close()
	if err := a.container.Metrics.WritePrometheus(f); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the root command and exits non-zero on error
func Execute(ctx context.Context, bootstrap Bootstrap) {
	rootCmd := NewRootCommand(bootstrap)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
