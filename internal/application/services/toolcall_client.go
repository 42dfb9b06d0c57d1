package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
	toolcallports "vibedoc.ai/mcpcall/internal/core/ports/toolcall"
	"vibedoc.ai/mcpcall/internal/extract"
	httpinfra "vibedoc.ai/mcpcall/internal/infrastructure/http"
	"vibedoc.ai/mcpcall/internal/infrastructure/sse"
	"vibedoc.ai/mcpcall/internal/jsonrpc"
	"vibedoc.ai/mcpcall/internal/metrics"
)

const (
	// DefaultAttachTimeout bounds the wait for the listener's stream before
	// dispatching anyway
	DefaultAttachTimeout = 500 * time.Millisecond
	// DefaultFetchMaxLength is the max_length sent by FetchURL when none is given
	DefaultFetchMaxLength = 5000
	// UnknownServiceLabel is the metrics label for keys missing from the registry
	UnknownServiceLabel = "unknown"
)

// ToolCallClient runs tool calls against the services of one registry. It is
// safe for concurrent use; calls share nothing but the HTTP connection pool.
type ToolCallClient struct {
	registry   service.Registry
	negotiator toolcallports.Negotiator
	listener   toolcallports.Listener
	dispatcher toolcallports.Dispatcher
	correlator *Correlator
	extractor  *extract.Extractor
	ids        *jsonrpc.IDSource
	logger     *zap.Logger
	metrics    *metrics.Recorder
	clock      func() time.Time

	attachTimeout time.Duration
}

type clientOptions struct {
	httpClient    *http.Client
	userAgent     string
	logger        *zap.Logger
	metrics       *metrics.Recorder
	clock         func() time.Time
	strictArgs    bool
	attachTimeout time.Duration
	extractor     *extract.Extractor
	negotiator    toolcallports.Negotiator
	listener      toolcallports.Listener
	dispatcher    toolcallports.Dispatcher
}

// ClientOption configures a ToolCallClient
type ClientOption func(*clientOptions)

// WithHTTPClient sets the HTTP client used for every request
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(o *clientOptions) { o.userAgent = ua }
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

func WithMetrics(m *metrics.Recorder) ClientOption {
	return func(o *clientOptions) { o.metrics = m }
}

// WithClock replaces the wall clock used for elapsed times and request ids
func WithClock(clock func() time.Time) ClientOption {
	return func(o *clientOptions) { o.clock = clock }
}

// WithStrictArgs rejects arguments that do not match the tool schema
func WithStrictArgs(strict bool) ClientOption {
	return func(o *clientOptions) { o.strictArgs = strict }
}

// WithAttachTimeout bounds how long dispatch waits for the listener stream
func WithAttachTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.attachTimeout = d }
}

// WithExtractor replaces the content extractor
func WithExtractor(e *extract.Extractor) ClientOption {
	return func(o *clientOptions) { o.extractor = e }
}

// WithPipeline replaces the transport stages. Nil stages keep the defaults.
func WithPipeline(n toolcallports.Negotiator, l toolcallports.Listener, d toolcallports.Dispatcher) ClientOption {
	return func(o *clientOptions) {
		o.negotiator, o.listener, o.dispatcher = n, l, d
	}
}

// NewToolCallClient builds a client over registry
func NewToolCallClient(registry service.Registry, opts ...ClientOption) *ToolCallClient {
	o := clientOptions{
		clock:         time.Now,
		attachTimeout: DefaultAttachTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.extractor == nil {
		o.extractor = extract.Default
	}
	if o.attachTimeout <= 0 {
		o.attachTimeout = DefaultAttachTimeout
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Transport: httpinfra.NewLoggingRoundTripper(http.DefaultTransport, o.logger)}
	}
	rc := httpinfra.NewClient(hc, o.userAgent)

	if o.negotiator == nil {
		o.negotiator = sse.NewNegotiator(rc, o.logger)
	}
	if o.listener == nil {
		o.listener = sse.NewListener(rc, o.logger)
	}
	if o.dispatcher == nil {
		o.dispatcher = httpinfra.NewDispatcher(rc, o.logger, o.strictArgs)
	}

	return &ToolCallClient{
		registry:      registry,
		negotiator:    o.negotiator,
		listener:      o.listener,
		dispatcher:    o.dispatcher,
		correlator:    NewCorrelator(),
		extractor:     o.extractor,
		ids:           jsonrpc.NewIDSource(o.clock),
		logger:        o.logger,
		metrics:       o.metrics,
		clock:         o.clock,
		attachTimeout: o.attachTimeout,
	}
}

// Registry returns the services this client knows about
func (c *ToolCallClient) Registry() service.Registry {
	return c.registry
}

// Call invokes tool on the service registered under serviceKey using the
// service's own result timeout. It never returns an error: every failure is
// reported through the result.
func (c *ToolCallClient) Call(ctx context.Context, serviceKey, tool string, args map[string]any) call.Result {
	return c.CallWithTimeout(ctx, serviceKey, tool, args, 0)
}

// CallWithTimeout is Call with the asynchronous result wait bounded by
// timeout instead of the service default. Non-positive timeouts use the default.
func (c *ToolCallClient) CallWithTimeout(ctx context.Context, serviceKey, tool string, args map[string]any, timeout time.Duration) (result call.Result) {
	start := c.clock()
	tracker := call.NewTracker()
	log := c.logger.With(
		zap.String("call_id", uuid.NewString()),
		zap.String("service", serviceKey),
		zap.String("tool", tool))

	label := UnknownServiceLabel
	defer c.metrics.Start()()
	defer func() {
		if r := recover(); r != nil {
			log.Error("tool call panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = call.Failed(serviceKey, result.SessionID, c.since(start), tracker.Current(),
				call.NewProtocolError("call", fmt.Sprintf("internal failure: %v", r)))
		}
		c.record(log, label, result)
	}()

	desc, ok := c.registry.Lookup(serviceKey)
	if !ok {
		tracker.Advance(call.StateConfigurationFailed)
		return call.Failed(serviceKey, "", c.since(start), tracker.Current(),
			call.NewConfigurationError(fmt.Sprintf("unknown service %q", serviceKey)))
	}
	label = serviceKey
	if !desc.Enabled() {
		tracker.Advance(call.StateConfigurationFailed)
		return call.Failed(desc.Name(), "", c.since(start), tracker.Current(),
			call.NewConfigurationError(fmt.Sprintf("service %q is disabled", serviceKey)))
	}
	desc = desc.WithResultTimeout(timeout)

	tracker.Advance(call.StateNegotiating)
	session, err := c.negotiator.Negotiate(ctx, desc)
	if err != nil {
		tracker.Advance(call.StateNegotiationFailed)
		return call.Failed(desc.Name(), "", c.since(start), tracker.Current(), err)
	}
	log = log.With(zap.String("session_id", session.Token))
	tracker.Advance(call.StateListeningAndDispatching)

	requestID := c.ids.Next()
	deliveries := make(chan call.Delivery, 1)
	attached := make(chan struct{})

	listenCtx, stopListener := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(listenCtx)
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("listener panicked: %v", r)
				select {
				case deliveries <- call.Delivery{Kind: call.ListenFailed, Err: call.NewProtocolError("listen", err.Error())}:
				default:
				}
			}
		}()
		c.listener.Listen(gctx, desc, session, requestID, attached, deliveries)
		return nil
	})
	defer func() {
		stopListener()
		if err := g.Wait(); err != nil {
			log.Warn("listener ended abnormally", zap.Error(err))
		}
	}()

	c.awaitAttach(ctx, log, attached)

	dispatch, dispatchErr := c.dispatcher.Dispatch(ctx, desc, session, requestID, tool, args)
	if dispatchErr == nil && dispatch.Mode == call.DispatchAsync {
		tracker.Advance(call.StateAwaitingAsyncResult)
	}

	outcome := c.correlator.Await(ctx, dispatch, dispatchErr, deliveries, desc.ResultTimeout())
	tracker.Advance(outcome.State)

	if outcome.Err != nil {
		return call.Failed(desc.Name(), session.Token, c.since(start), tracker.Current(), outcome.Err)
	}
	content, _ := c.extractor.Extract(outcome.Payload)
	return call.Succeeded(desc.Name(), content, session.Token, c.since(start), tracker.Current())
}

// awaitAttach holds dispatch until the listener stream is open. If the server
// is slow to answer, dispatch proceeds after attachTimeout.
func (c *ToolCallClient) awaitAttach(ctx context.Context, log *zap.Logger, attached <-chan struct{}) {
	timer := time.NewTimer(c.attachTimeout)
	defer timer.Stop()
	select {
	case <-attached:
	case <-timer.C:
		log.Debug("listener not attached yet, dispatching anyway", zap.Duration("waited", c.attachTimeout))
	case <-ctx.Done():
	}
}

func (c *ToolCallClient) since(start time.Time) time.Duration {
	return c.clock().Sub(start)
}

func (c *ToolCallClient) record(log *zap.Logger, label string, r call.Result) {
	c.metrics.Observe(label, r.State.String(), string(r.ErrorKind), r.Elapsed)

	fields := []zap.Field{
		zap.Bool("success", r.Success),
		zap.String("state", r.State.String()),
		zap.Duration("elapsed", r.Elapsed),
	}
	if r.Success {
		log.Info("tool call finished", append(fields, zap.Int("content_length", len(r.Content)))...)
		return
	}
	log.Warn("tool call failed", append(fields,
		zap.String("error_kind", string(r.ErrorKind)),
		zap.String("error", r.ErrorMessage))...)
}

// FetchURL retrieves url through the fetch service. maxLength <= 0 uses
// DefaultFetchMaxLength.
func (c *ToolCallClient) FetchURL(ctx context.Context, url string, maxLength int) call.Result {
	if maxLength <= 0 {
		maxLength = DefaultFetchMaxLength
	}
	return c.Call(ctx, service.FetchKey, service.FetchTool, map[string]any{
		"url":        url,
		"max_length": maxLength,
	})
}

// DeepWiki retrieves a repository wiki. An empty mode means aggregate.
func (c *ToolCallClient) DeepWiki(ctx context.Context, url, mode string) call.Result {
	if mode == "" {
		mode = service.DefaultWikiMode
	}
	return c.Call(ctx, service.DeepWikiKey, service.DeepWikiTool, map[string]any{
		"url":  url,
		"mode": mode,
	})
}

var _ toolcallports.ToolCaller = (*ToolCallClient)(nil)
