package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
	toolcallports "vibedoc.ai/mcpcall/internal/core/ports/toolcall"
)

// ProbeTarget is the known-good call used to check a service
type ProbeTarget struct {
	Tool string
	Args map[string]any
}

// DefaultProbeTargets returns the probes for the built-in services
func DefaultProbeTargets() map[string]ProbeTarget {
	return map[string]ProbeTarget{
		service.FetchKey: {
			Tool: service.FetchTool,
			Args: map[string]any{"url": "https://httpbin.org/get", "max_length": 100},
		},
		service.DeepWikiKey: {
			Tool: service.DeepWikiTool,
			Args: map[string]any{"url": "https://deepwiki.org/openai/openai-python", "mode": service.DefaultWikiMode},
		},
	}
}

// ServiceStatus is the probe outcome for one service
type ServiceStatus struct {
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	Online    bool           `json:"online"`
	Skipped   bool           `json:"skipped,omitempty"`
	Elapsed   time.Duration  `json:"elapsed"`
	ErrorKind call.ErrorKind `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// StatusProber checks every enabled service concurrently, starting probes no
// faster than its limiter allows
type StatusProber struct {
	caller   toolcallports.ToolCaller
	registry service.Registry
	targets  map[string]ProbeTarget
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewStatusProber creates a prober. A nil limiter starts one probe every 250ms.
func NewStatusProber(caller toolcallports.ToolCaller, registry service.Registry, targets map[string]ProbeTarget, limiter *rate.Limiter, logger *zap.Logger) *StatusProber {
	if targets == nil {
		targets = DefaultProbeTargets()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(250*time.Millisecond), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusProber{caller: caller, registry: registry, targets: targets, limiter: limiter, logger: logger}
}

// Probe returns one status per enabled service, sorted by key. Services with
// no probe target are reported as skipped.
func (p *StatusProber) Probe(ctx context.Context) []ServiceStatus {
	enabled := p.registry.Enabled()
	statuses := make([]ServiceStatus, len(enabled))

	g, gctx := errgroup.WithContext(ctx)
	for i, desc := range enabled {
		statuses[i] = ServiceStatus{Key: desc.Key(), Name: desc.Name()}
		target, ok := p.targets[desc.Key()]
		if !ok {
			statuses[i].Skipped = true
			continue
		}

		g.Go(func() error {
			if err := p.limiter.Wait(gctx); err != nil {
				statuses[i].ErrorKind = call.KindTimeout
				statuses[i].Error = err.Error()
				return nil
			}
			res := p.caller.Call(gctx, desc.Key(), target.Tool, target.Args)
			statuses[i].Online = res.Success
			statuses[i].Elapsed = res.Elapsed
			statuses[i].ErrorKind = res.ErrorKind
			statuses[i].Error = res.ErrorMessage
			p.logger.Debug("service probed",
				zap.String("service", desc.Key()),
				zap.Bool("online", res.Success),
				zap.Duration("elapsed", res.Elapsed))
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(statuses, func(a, b int) bool { return statuses[a].Key < statuses[b].Key })
	return statuses
}
