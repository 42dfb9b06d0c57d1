package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// MessageType represents the type of JSON-RPC message
type MessageType string

const (
	MessageTypeRequest      MessageType = "request"
	MessageTypeResponse     MessageType = "response"
	MessageTypeNotification MessageType = "notification"
	MessageTypeError        MessageType = "error"
)

// Request is the tools/call envelope posted to the callback endpoint
type Request struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      int64              `json:"id"`
	Method  string             `json:"method"`
	Params  mcp.CallToolParams `json:"params"`
}

// ErrorInfo contains details about JSON-RPC errors
type ErrorInfo struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// IDSource hands out request ids derived from the clock, strictly increasing
// even when two calls land in the same millisecond
type IDSource struct {
	now  func() time.Time
	last atomic.Int64
}

// NewIDSource creates an id source; now defaults to time.Now
func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// Next returns the next request id
func (s *IDSource) Next() int64 {
	for {
		candidate := s.now().UnixMilli()
		prev := s.last.Load()
		if candidate <= prev {
			candidate = prev + 1
		}
		if s.last.CompareAndSwap(prev, candidate) {
			return candidate
		}
	}
}

// NewToolCallRequest builds a tools/call envelope. A nil argument map is sent
// as an empty object.
func NewToolCallRequest(id int64, tool string, args map[string]any) Request {
	if args == nil {
		args = map[string]any{}
	}
	return Request{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Method:  string(mcp.MethodToolsCall),
		Params: mcp.CallToolParams{
			Name:      tool,
			Arguments: args,
		},
	}
}

// Marshal encodes the envelope
func (r Request) Marshal() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", r.Method, err)
	}
	return b, nil
}

// Message is an inbound JSON-RPC message observed on a result stream
type Message struct {
	msgType   MessageType
	method    string
	requestID json.RawMessage
	result    json.RawMessage
	errorInfo *ErrorInfo
	payload   json.RawMessage
}

// Parse classifies raw JSON as a JSON-RPC message. Objects lacking a version
// tag are accepted since some services omit it on streamed results.
func Parse(raw []byte) (*Message, error) {
	var base struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method,omitempty"`
		ID      json.RawMessage `json:"id,omitempty"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   json.RawMessage `json:"error,omitempty"`
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("invalid JSON-RPC message: not an object")
	}
	if err := json.Unmarshal(trimmed, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC message: %w", err)
	}
	if base.JSONRPC != "" && base.JSONRPC != mcp.JSONRPC_VERSION {
		return nil, fmt.Errorf("unsupported JSON-RPC version: %s", base.JSONRPC)
	}

	m := &Message{
		method:    base.Method,
		requestID: base.ID,
		result:    base.Result,
		payload:   append(json.RawMessage(nil), trimmed...),
	}

	switch {
	case present(base.Error):
		m.msgType = MessageTypeError
		var info ErrorInfo
		if err := json.Unmarshal(base.Error, &info); err != nil {
			info = ErrorInfo{Message: string(base.Error)}
		}
		m.errorInfo = &info
	case base.Method != "" && present(base.ID):
		m.msgType = MessageTypeRequest
	case base.Method != "":
		m.msgType = MessageTypeNotification
	case present(base.Result) || present(base.ID):
		m.msgType = MessageTypeResponse
	default:
		return nil, fmt.Errorf("cannot determine JSON-RPC message type")
	}
	return m, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Type returns the message type
func (m *Message) Type() MessageType {
	return m.msgType
}

// Method returns the JSON-RPC method name
func (m *Message) Method() string {
	return m.method
}

// RequestID returns the raw id, nil for notifications
func (m *Message) RequestID() json.RawMessage {
	if m.requestID == nil {
		return nil
	}
	return append(json.RawMessage(nil), m.requestID...)
}

// MatchesID reports whether the message answers request id
func (m *Message) MatchesID(id int64) bool {
	var got int64
	if err := json.Unmarshal(m.requestID, &got); err != nil {
		return false
	}
	return got == id
}

// ErrorInfo returns error details for error messages
func (m *Message) ErrorInfo() *ErrorInfo {
	return m.errorInfo
}

// Payload returns a copy of the whole message
func (m *Message) Payload() json.RawMessage {
	return append(json.RawMessage(nil), m.payload...)
}

// IsResult reports whether the message carries the outcome of a call, either
// a result or an error
func (m *Message) IsResult() bool {
	return m.msgType == MessageTypeResponse || m.msgType == MessageTypeError
}

// Result returns the raw result member, nil when absent
func (m *Message) Result() json.RawMessage {
	if !present(m.result) {
		return nil
	}
	return append(json.RawMessage(nil), m.result...)
}
