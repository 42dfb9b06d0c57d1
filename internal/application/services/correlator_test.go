package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
)

func TestCorrelator_DispatchErrorTakesPrecedence(t *testing.T) {
	deliveries := make(chan call.Delivery, 1)
	deliveries <- call.Delivery{Kind: call.Delivered, Payload: json.RawMessage(`{"result":"ignored"}`)}

	out := NewCorrelator().Await(context.Background(), call.Dispatch{Status: 500}, call.NewDispatchError(500, []byte("boom")), deliveries, time.Second)

	assert.Equal(t, call.StateDispatchFailed, out.State)
	assert.ErrorIs(t, out.Err, call.ErrDispatch)
	assert.Len(t, deliveries, 1, "listener output must not be consumed")
}

func TestCorrelator_SyncDoesNotReadChannel(t *testing.T) {
	deliveries := make(chan call.Delivery, 1)
	deliveries <- call.Delivery{Kind: call.Delivered, Payload: json.RawMessage(`{"result":"late"}`)}

	out := NewCorrelator().Await(context.Background(), call.Dispatch{Mode: call.DispatchSync, Body: []byte(`{"result":{"text":"hi"}}`)}, nil, deliveries, time.Second)

	require.NoError(t, out.Err)
	assert.Equal(t, call.StateSynchronousResult, out.State)
	assert.Equal(t, map[string]any{"result": map[string]any{"text": "hi"}}, out.Payload)
	assert.Len(t, deliveries, 1)
}

func TestCorrelator_SyncNonJSONBodyIsText(t *testing.T) {
	out := NewCorrelator().Await(context.Background(), call.Dispatch{Mode: call.DispatchSync, Body: []byte("plain body")}, nil, nil, time.Second)

	assert.Equal(t, "plain body", out.Payload)
}

func TestCorrelator_AsyncDeliveries(t *testing.T) {
	tests := []struct {
		name      string
		delivery  call.Delivery
		wantState call.State
		wantErr   error
	}{
		{
			name:      "Delivered_ShouldReturnPayload",
			delivery:  call.Delivery{Kind: call.Delivered, Payload: json.RawMessage(`{"result":{"text":"hello there world"}}`)},
			wantState: call.StateAsyncResultReceived,
		},
		{
			name:      "TimedOut_ShouldBeTimeoutError",
			delivery:  call.Delivery{Kind: call.TimedOut, Err: call.NewTimeoutError("listen", context.DeadlineExceeded)},
			wantState: call.StateAsyncTimeout,
			wantErr:   call.ErrTimeout,
		},
		{
			name:      "TimedOutWithoutError_ShouldStillBeTimeout",
			delivery:  call.Delivery{Kind: call.TimedOut},
			wantState: call.StateAsyncTimeout,
			wantErr:   call.ErrTimeout,
		},
		{
			name:      "ListenFailed_ShouldBeListenerFailed",
			delivery:  call.Delivery{Kind: call.ListenFailed, Err: call.NewStatusError("listen", 502)},
			wantState: call.StateListenerFailed,
			wantErr:   call.ErrConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deliveries := make(chan call.Delivery, 1)
			deliveries <- tt.delivery

			out := NewCorrelator().Await(context.Background(), call.Dispatch{Mode: call.DispatchAsync}, nil, deliveries, time.Second)

			assert.Equal(t, tt.wantState, out.State)
			if tt.wantErr != nil {
				assert.ErrorIs(t, out.Err, tt.wantErr)
				return
			}
			require.NoError(t, out.Err)
			assert.NotNil(t, out.Payload)
		})
	}
}

func TestCorrelator_WaitTimeout(t *testing.T) {
	fired := make(chan time.Time, 1)
	fired <- time.Now()
	c := &Correlator{after: func(time.Duration) <-chan time.Time { return fired }}

	out := c.Await(context.Background(), call.Dispatch{Mode: call.DispatchAsync}, nil, make(chan call.Delivery), time.Hour)

	assert.Equal(t, call.StateAsyncTimeout, out.State)
	assert.ErrorIs(t, out.Err, call.ErrTimeout)
}

func TestCorrelator_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewCorrelator().Await(ctx, call.Dispatch{Mode: call.DispatchAsync}, nil, make(chan call.Delivery), time.Hour)

	assert.Equal(t, call.StateAsyncTimeout, out.State)
	assert.ErrorIs(t, out.Err, call.ErrTimeout)
}
