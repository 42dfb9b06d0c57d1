package call

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSucceeded_ShortContent_DowngradesToContentEmpty(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantSuccess bool
	}{
		{name: "Empty_ShouldFail", content: "", wantSuccess: false},
		{name: "ExactlyTen_ShouldFail", content: "0123456789", wantSuccess: false},
		{name: "PaddedShort_ShouldFail", content: "   short    \n", wantSuccess: false},
		{name: "Eleven_ShouldSucceed", content: "0123456789a", wantSuccess: true},
		{name: "HelloWorld_ShouldSucceed", content: "Hello World", wantSuccess: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Succeeded("Fetch MCP", tt.content, "abc", time.Second, StateAsyncResultReceived)

			assert.Equal(t, tt.wantSuccess, r.Success)
			if tt.wantSuccess {
				assert.Equal(t, tt.content, r.Content)
				assert.Empty(t, r.ErrorMessage)
			} else {
				assert.Equal(t, KindContentEmpty, r.ErrorKind)
				assert.NotEmpty(t, r.ErrorMessage)
				assert.Empty(t, r.Content)
			}
			assert.Equal(t, "abc", r.SessionID)
		})
	}
}

func TestFailed_NilError_StillHasMessage(t *testing.T) {
	r := Failed("svc", "", 0, StateDispatchFailed, nil)

	assert.False(t, r.Success)
	assert.NotEmpty(t, r.ErrorMessage)
	assert.Equal(t, KindConnection, r.ErrorKind)
}

func TestResult_PropertyBased_Invariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		content := rapid.String().Draw(t, "content")
		var r Result
		if rapid.Bool().Draw(t, "success") {
			r = Succeeded("svc", content, "", time.Millisecond, StateSynchronousResult)
		} else {
			msg := rapid.String().Draw(t, "msg")
			r = Failed("svc", "", time.Millisecond, StateDispatchFailed, errors.New(msg))
		}

		if r.Success {
			assert.Greater(t, len(strings.TrimSpace(r.Content)), MinContentLength)
		} else {
			assert.NotEmpty(t, r.ErrorMessage)
		}
	})
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewTimeoutError("await", context.DeadlineExceeded))

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrDispatch))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "cause should stay reachable")
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestNewDispatchError_TruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 500)

	err := NewDispatchError(500, []byte(body))

	assert.Equal(t, 500, err.Status)
	assert.Len(t, err.Body, maxBodyExcerpt)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.True(t, errors.Is(err, ErrDispatch))
}

func TestFromTransport_ClassifiesDeadline(t *testing.T) {
	assert.Nil(t, FromTransport("op", nil))
	assert.Equal(t, KindTimeout, FromTransport("op", context.DeadlineExceeded).Kind)
	assert.Equal(t, KindConnection, FromTransport("op", errors.New("refused")).Kind)

	protocol := NewProtocolError("negotiate", "no endpoint")
	assert.Same(t, protocol, FromTransport("op", protocol))
}

func TestKindOf_Nil(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
}

func TestTruncate_KeepsRuneBoundary(t *testing.T) {
	s := "ab世界"
	out := Truncate(s, 4)

	assert.Equal(t, "ab", out)
	assert.Equal(t, s, Truncate(s, 100))
}

func TestStateMachine_Transitions(t *testing.T) {
	paths := [][]State{
		{StateIdle, StateConfigurationFailed},
		{StateIdle, StateNegotiating, StateNegotiationFailed},
		{StateIdle, StateNegotiating, StateListeningAndDispatching, StateSynchronousResult},
		{StateIdle, StateNegotiating, StateListeningAndDispatching, StateDispatchFailed},
		{StateIdle, StateNegotiating, StateListeningAndDispatching, StateAwaitingAsyncResult, StateAsyncResultReceived},
		{StateIdle, StateNegotiating, StateListeningAndDispatching, StateAwaitingAsyncResult, StateAsyncTimeout},
		{StateIdle, StateNegotiating, StateListeningAndDispatching, StateAwaitingAsyncResult, StateListenerFailed},
	}

	for _, path := range paths {
		t.Run(string(path[len(path)-1]), func(t *testing.T) {
			tracker := NewTracker()
			for _, next := range path[1:] {
				require.True(t, tracker.Advance(next), "edge to %s should be legal", next)
			}
			assert.True(t, tracker.Current().Terminal())
			assert.Equal(t, path, tracker.Path())
		})
	}
}

func TestStateMachine_RejectsIllegalEdges(t *testing.T) {
	tracker := NewTracker()

	assert.False(t, tracker.Advance(StateSynchronousResult))
	assert.Equal(t, StateIdle, tracker.Current())
	assert.False(t, StateAwaitingAsyncResult.Terminal())
	assert.False(t, CanTransition(StateAsyncTimeout, StateAsyncResultReceived))
}
