package sse

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
	toolcallports "vibedoc.ai/mcpcall/internal/core/ports/toolcall"
	httpinfra "vibedoc.ai/mcpcall/internal/infrastructure/http"
	"vibedoc.ai/mcpcall/internal/jsonrpc"
)

// endpointEvent names the frame that announces a callback path
const endpointEvent = "endpoint"

// Listener watches the session stream for the asynchronously delivered result
type Listener struct {
	client       *resty.Client
	logger       *zap.Logger
	maxFrameSize int
}

// NewListener creates a listener over client
func NewListener(client *resty.Client, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{client: client, logger: logger, maxFrameSize: DefaultMaxFrameSize}
}

// Listen blocks until the first qualifying frame, the result timeout, a
// transport failure or ctx cancellation. It closes attached once the stream
// is open (or failed to open) and writes at most one Delivery to out, without
// blocking. On ctx cancellation nothing is written.
func (l *Listener) Listen(ctx context.Context, desc service.Descriptor, session call.Session, requestID int64, attached chan<- struct{}, out chan<- call.Delivery) {
	var once sync.Once
	ack := func() { once.Do(func() { close(attached) }) }
	defer ack()

	streamCtx, cancel := context.WithTimeout(ctx, desc.ResultTimeout())
	defer cancel()

	deliver := func(d call.Delivery) {
		if ctx.Err() != nil {
			return
		}
		select {
		case out <- d:
		default:
			l.logger.Warn("result slot already filled, dropping delivery", zap.String("kind", d.Kind.String()))
		}
	}
	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		kind := call.ListenFailed
		if call.KindOf(err) == call.KindTimeout {
			kind = call.TimedOut
		}
		deliver(call.Delivery{Kind: kind, Err: call.FromTransport("listen", err)})
	}

	body, status, err := httpinfra.OpenStream(streamCtx, l.client, withSession(desc.URL(), session.Token), nil)
	if err != nil {
		ack()
		fail(err)
		return
	}
	if body == nil {
		ack()
		fail(call.NewStatusError("listen", status))
		return
	}
	defer body.Close()
	ack()

	l.logger.Debug("listener attached", zap.String("service", desc.Key()), zap.String("session_id", session.Token))

	var result json.RawMessage
	readErr := ReadFrames(streamCtx, body, l.maxFrameSize, func(f Frame) bool {
		payload, ok := l.qualify(f, requestID)
		if !ok {
			return true
		}
		result = payload
		return false
	})

	if result != nil {
		deliver(call.Delivery{Kind: call.Delivered, Payload: result})
		return
	}
	if readErr != nil {
		fail(readErr)
		return
	}
	fail(call.NewProtocolError("listen", "stream closed before a result arrived"))
}

// qualify decides whether f carries the result. JSON-RPC messages with a
// result or error member qualify unless they answer a different request;
// other non-JSON text qualifies when it is long enough to be content.
func (l *Listener) qualify(f Frame, requestID int64) (json.RawMessage, bool) {
	if f.Event == endpointEvent {
		return nil, false
	}
	data := strings.TrimSpace(f.Data)
	if data == "" {
		return nil, false
	}

	if json.Valid([]byte(data)) {
		msg, err := jsonrpc.Parse([]byte(data))
		if err != nil || !msg.IsResult() {
			return nil, false
		}
		if msg.Result() == nil && msg.ErrorInfo() == nil {
			return nil, false
		}
		if msg.RequestID() != nil && !msg.MatchesID(requestID) {
			l.logger.Debug("ignoring result for another request", zap.ByteString("id", msg.RequestID()))
			return nil, false
		}
		return msg.Payload(), true
	}

	if _, _, isEndpoint := ParseEndpoint(data); isEndpoint {
		return nil, false
	}
	if !call.Usable(data) {
		return nil, false
	}
	wrapped, err := json.Marshal(map[string]any{"result": map[string]any{"text": data}})
	if err != nil {
		l.logger.Warn("failed to wrap text result", zap.Error(err))
		return nil, false
	}
	return wrapped, true
}

var _ toolcallports.Listener = (*Listener)(nil)
