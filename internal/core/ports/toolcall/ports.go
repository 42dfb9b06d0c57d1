package toolcallports

import (
	"context"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

type Negotiator interface {
	Negotiate(ctx context.Context, desc service.Descriptor) (call.Session, error)
}

// Listener runs on its own goroutine. It closes attached once its stream is
// open and writes at most one Delivery to out.
type Listener interface {
	Listen(ctx context.Context, desc service.Descriptor, session call.Session, requestID int64, attached chan<- struct{}, out chan<- call.Delivery)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, desc service.Descriptor, session call.Session, requestID int64, tool string, args map[string]any) (call.Dispatch, error)
}

// ToolCaller is the blocking facade consumed by higher-level workflows
type ToolCaller interface {
	Call(ctx context.Context, serviceKey, tool string, args map[string]any) call.Result
}
