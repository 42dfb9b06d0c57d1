package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vibedoc.ai/mcpcall/internal/application/services"
	"vibedoc.ai/mcpcall/internal/config"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
	"vibedoc.ai/mcpcall/internal/interfaces/cli"
	"vibedoc.ai/mcpcall/internal/logging"
	"vibedoc.ai/mcpcall/internal/metrics"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Registry service.Registry

	// Core services
	Client    *services.ToolCallClient
	Knowledge *services.KnowledgeService
	Prober    *services.StatusProber

	// Infrastructure
	Metrics *metrics.Recorder

	// CLI
	CLIContainer *cli.CLIContainer

	Logger *zap.Logger

	logOutput  io.Writer
	httpClient *http.Client
}

// Option customizes container construction
type Option func(*Container)

// WithLogOutput sends logs to w instead of stderr
func WithLogOutput(w io.Writer) Option {
	return func(c *Container) { c.logOutput = w }
}

// WithHTTPClient replaces the HTTP client shared by every tool call
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Container) { c.httpClient = hc }
}

// NewContainer creates and configures the dependency injection container
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	container := &Container{Config: cfg}
	for _, opt := range opts {
		opt(container)
	}

	if err := container.initializeComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return container, nil
}

// initializeComponents initializes all components with proper dependencies
func (c *Container) initializeComponents() error {
	// 1. Logger
	logger, err := logging.New(logging.Options{
		Level:  c.Config.LogLevel,
		Format: c.Config.LogFormat,
		Output: c.logOutput,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.Logger = logger

	// 2. Service registry
	c.Registry, err = c.Config.Registry()
	if err != nil {
		return fmt.Errorf("service registry: %w", err)
	}

	// 3. Infrastructure
	c.Metrics = metrics.NewRecorder()

	// 4. Application services
	clientOpts := []services.ClientOption{
		services.WithLogger(logger),
		services.WithMetrics(c.Metrics),
		services.WithUserAgent(c.Config.UserAgent),
		services.WithStrictArgs(c.Config.StrictArgs),
		services.WithAttachTimeout(c.Config.AttachTimeout),
	}
	if c.httpClient != nil {
		clientOpts = append(clientOpts, services.WithHTTPClient(c.httpClient))
	}
	c.Client = services.NewToolCallClient(c.Registry, clientOpts...)
	c.Knowledge = services.NewKnowledgeService(c.Client, logger)

	var limiter *rate.Limiter
	if c.Config.ProbeInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(c.Config.ProbeInterval), 1)
	}
	c.Prober = services.NewStatusProber(c.Client, c.Registry, services.DefaultProbeTargets(), limiter, logger)

	// 5. CLI container
	c.CLIContainer = &cli.CLIContainer{
		Config:    c.Config,
		Logger:    logger,
		Metrics:   c.Metrics,
		Client:    c.Client,
		Knowledge: c.Knowledge,
		Prober:    c.Prober,
	}

	logger.Debug("dependency injection container initialized",
		zap.Int("services", c.Registry.Len()),
		zap.Int("enabled", len(c.Registry.Enabled())))
	return nil
}

// GetCLIContainer returns the CLI container for command execution
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return c.CLIContainer
}

// Bootstrap is the cli.Bootstrap used by the binary
func Bootstrap(cfg *config.Config) (*cli.CLIContainer, error) {
	container, err := NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	return container.GetCLIContainer(), nil
}

// HealthCheck verifies every component is wired and something can be called
func (c *Container) HealthCheck() error {
	switch {
	case c.Client == nil:
		return errors.New("tool call client not initialized")
	case c.Knowledge == nil:
		return errors.New("knowledge service not initialized")
	case c.Prober == nil:
		return errors.New("status prober not initialized")
	case c.Metrics == nil:
		return errors.New("metrics recorder not initialized")
	}
	if len(c.Registry.Enabled()) == 0 {
		return errors.New("no service is enabled")
	}
	return nil
}

// Shutdown flushes buffered logs
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Logger == nil {
		return nil
	}
	c.Logger.Debug("shutting down application")
	if err := c.Logger.Sync(); err != nil && !isIgnorableSyncError(err) {
		return fmt.Errorf("failed to flush logs: %w", err)
	}
	return nil
}

// isIgnorableSyncError reports the errors zap returns when syncing a
// terminal, which cannot be fsynced
func isIgnorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
