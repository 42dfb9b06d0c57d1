package services

import (
	"context"
	"time"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/extract"
)

// Outcome is what the correlator settled on for one call
type Outcome struct {
	Payload any
	State   call.State
	Err     error
}

// Correlator turns a dispatch and the listener channel into exactly one outcome
type Correlator struct {
	after func(time.Duration) <-chan time.Time
}

// NewCorrelator creates a correlator using the wall clock
func NewCorrelator() *Correlator {
	return &Correlator{after: time.After}
}

// Await resolves the call. A dispatch failure wins over anything the
// listener reports; a synchronous dispatch never reads the channel.
func (c *Correlator) Await(ctx context.Context, dispatch call.Dispatch, dispatchErr error, deliveries <-chan call.Delivery, timeout time.Duration) Outcome {
	if dispatchErr != nil {
		return Outcome{State: call.StateDispatchFailed, Err: dispatchErr}
	}

	if dispatch.Mode == call.DispatchSync {
		return Outcome{Payload: decodeBody(dispatch.Body), State: call.StateSynchronousResult}
	}

	select {
	case d := <-deliveries:
		switch d.Kind {
		case call.Delivered:
			return Outcome{Payload: decodeBody(d.Payload), State: call.StateAsyncResultReceived}
		case call.TimedOut:
			if d.Err == nil {
				return Outcome{State: call.StateAsyncTimeout, Err: call.NewTimeoutError("listen", context.DeadlineExceeded)}
			}
			return Outcome{State: call.StateAsyncTimeout, Err: call.FromTransport("listen", d.Err)}
		default:
			if d.Err == nil {
				return Outcome{State: call.StateListenerFailed, Err: call.NewProtocolError("listen", "listener stopped without a result")}
			}
			return Outcome{State: call.StateListenerFailed, Err: call.FromTransport("listen", d.Err)}
		}
	case <-c.after(timeout):
		return Outcome{State: call.StateAsyncTimeout, Err: call.NewTimeoutError("await", context.DeadlineExceeded)}
	case <-ctx.Done():
		return Outcome{State: call.StateAsyncTimeout, Err: call.NewTimeoutError("await", ctx.Err())}
	}
}

// decodeBody parses JSON when possible and otherwise hands back the raw text
func decodeBody(raw []byte) any {
	v, err := extract.Decode(raw)
	if err != nil {
		return string(raw)
	}
	return v
}
