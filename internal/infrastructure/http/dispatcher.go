package httpinfra

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
	toolcallports "vibedoc.ai/mcpcall/internal/core/ports/toolcall"
	"vibedoc.ai/mcpcall/internal/jsonrpc"
)

// Dispatcher posts tools/call envelopes to a negotiated callback endpoint and
// classifies the response
type Dispatcher struct {
	client     *resty.Client
	logger     *zap.Logger
	strictArgs bool
}

// NewDispatcher creates a dispatcher. With strictArgs, arguments are checked
// against the service's tool schema before anything is sent.
func NewDispatcher(client *resty.Client, logger *zap.Logger, strictArgs bool) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{client: client, logger: logger, strictArgs: strictArgs}
}

// Dispatch sends the request. 202 means the result will arrive on the
// session stream, 200 means the body is the result, anything else fails.
func (d *Dispatcher) Dispatch(ctx context.Context, desc service.Descriptor, session call.Session, requestID int64, tool string, args map[string]any) (call.Dispatch, error) {
	if d.strictArgs {
		if err := desc.ValidateArgs(tool, args); err != nil {
			return call.Dispatch{}, call.NewConfigurationError(err.Error())
		}
	}

	endpoint, err := desc.ResolveCallback(session.Path)
	if err != nil {
		return call.Dispatch{}, call.NewProtocolError("dispatch", "invalid callback path: "+err.Error())
	}

	body, err := jsonrpc.NewToolCallRequest(requestID, tool, args).Marshal()
	if err != nil {
		return call.Dispatch{}, call.NewProtocolError("dispatch", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, desc.RequestTimeout())
	defer cancel()

	d.logger.Debug("dispatching tool call",
		zap.String("service", desc.Key()),
		zap.String("tool", tool),
		zap.Int64("request_id", requestID))

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeaders(JSONHeaders).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return call.Dispatch{}, call.FromTransport("dispatch", err)
	}

	d.logger.Debug("dispatch response",
		zap.String("service", desc.Key()),
		zap.Int("status", resp.StatusCode()))

	switch resp.StatusCode() {
	case http.StatusAccepted:
		return call.Dispatch{Mode: call.DispatchAsync, RequestID: requestID, Status: resp.StatusCode()}, nil
	case http.StatusOK:
		return call.Dispatch{Mode: call.DispatchSync, RequestID: requestID, Status: resp.StatusCode(), Body: resp.Body()}, nil
	default:
		return call.Dispatch{RequestID: requestID, Status: resp.StatusCode()}, call.NewDispatchError(resp.StatusCode(), resp.Body())
	}
}

var _ toolcallports.Dispatcher = (*Dispatcher)(nil)
