package jsonrpc

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolCallRequest_WireShape(t *testing.T) {
	req := NewToolCallRequest(42, "fetch", map[string]any{"url": "https://example.com", "max_length": 5000})

	raw, err := req.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "2.0", decoded["jsonrpc"])
	assert.EqualValues(t, 42, decoded["id"])
	assert.Equal(t, "tools/call", decoded["method"])

	params, ok := decoded["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fetch", params["name"])
	args, ok := params["arguments"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", args["url"])
	assert.EqualValues(t, 5000, args["max_length"])
}

func TestNewToolCallRequest_NilArgumentsSentAsObject(t *testing.T) {
	raw, err := NewToolCallRequest(1, "x", nil).Marshal()
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"arguments":{}`)
}

func TestParse_Classification(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expected    MessageType
		isResult    bool
		expectError bool
	}{
		{name: "Result", raw: `{"jsonrpc":"2.0","id":1,"result":{"content":[]}}`, expected: MessageTypeResponse, isResult: true},
		{name: "ResultWithoutVersion", raw: `{"id":1,"result":{}}`, expected: MessageTypeResponse, isResult: true},
		{name: "Error", raw: `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"nope"}}`, expected: MessageTypeError, isResult: true},
		{name: "NullErrorIsResponse", raw: `{"id":1,"result":"ok","error":null}`, expected: MessageTypeResponse, isResult: true},
		{name: "Notification", raw: `{"jsonrpc":"2.0","method":"notifications/progress"}`, expected: MessageTypeNotification},
		{name: "ServerRequest", raw: `{"jsonrpc":"2.0","id":9,"method":"ping"}`, expected: MessageTypeRequest},
		{name: "WrongVersion", raw: `{"jsonrpc":"1.0","id":1,"result":{}}`, expectError: true},
		{name: "Empty", raw: `{}`, expectError: true},
		{name: "Array", raw: `[1]`, expectError: true},
		{name: "NotJSON", raw: `hello`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.raw))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg.Type())
			assert.Equal(t, tt.isResult, msg.IsResult())
		})
	}
}

func TestParse_ErrorInfoAndID(t *testing.T) {
	msg, err := Parse([]byte(`{"jsonrpc":"2.0","id":7,"error":{"code":-32000,"message":"boom"}}`))
	require.NoError(t, err)

	require.NotNil(t, msg.ErrorInfo())
	assert.Equal(t, -32000, msg.ErrorInfo().Code)
	assert.Equal(t, "boom", msg.ErrorInfo().Message)
	assert.True(t, msg.MatchesID(7))
	assert.False(t, msg.MatchesID(8))
	assert.Nil(t, msg.Result())
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"error":{"code":-32000,"message":"boom"}}`, string(msg.Payload()))
}

func TestParse_StringIDNeverMatchesNumeric(t *testing.T) {
	msg, err := Parse([]byte(`{"id":"7","result":{}}`))
	require.NoError(t, err)

	assert.False(t, msg.MatchesID(7))
	assert.Equal(t, `"7"`, string(msg.RequestID()))
}

func TestIDSource_StrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	src := NewIDSource(func() time.Time { return fixed })

	first := src.Next()
	second := src.Next()

	assert.Equal(t, fixed.UnixMilli(), first)
	assert.Equal(t, first+1, second)
}

func TestIDSource_ConcurrentUnique(t *testing.T) {
	src := NewIDSource(nil)
	const workers, perWorker = 8, 200

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := src.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
