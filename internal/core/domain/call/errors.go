package call

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure a tool call can end with
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindConnection    ErrorKind = "ConnectionError"
	KindProtocol      ErrorKind = "ProtocolError"
	KindDispatch      ErrorKind = "DispatchError"
	KindTimeout       ErrorKind = "TimeoutError"
	KindContentEmpty  ErrorKind = "ContentEmptyError"
	KindConfiguration ErrorKind = "ConfigurationError"
)

// Kind sentinels for use with errors.Is
var (
	ErrConnection    = &Error{Kind: KindConnection}
	ErrProtocol      = &Error{Kind: KindProtocol}
	ErrDispatch      = &Error{Kind: KindDispatch}
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrContentEmpty  = &Error{Kind: KindContentEmpty}
	ErrConfiguration = &Error{Kind: KindConfiguration}
)

// maxBodyExcerpt bounds the response body carried by a DispatchError
const maxBodyExcerpt = 200

// Error is the single error type produced by the tool-call pipeline
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Body   string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(" during ")
		b.WriteString(e.Op)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.Status)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can write errors.Is(err, call.ErrTimeout)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewConnectionError wraps a transport failure
func NewConnectionError(op string, err error) *Error {
	return &Error{Kind: KindConnection, Op: op, Err: err}
}

// NewStatusError reports a non-success status while opening a stream
func NewStatusError(op string, status int) *Error {
	return &Error{Kind: KindConnection, Op: op, Status: status}
}

// NewProtocolError reports a malformed or missing protocol element
func NewProtocolError(op, msg string) *Error {
	return &Error{Kind: KindProtocol, Op: op, Msg: msg}
}

// NewDispatchError carries the unexpected status and a truncated body
func NewDispatchError(status int, body []byte) *Error {
	return &Error{Kind: KindDispatch, Op: "dispatch", Status: status, Body: Truncate(string(body), maxBodyExcerpt)}
}

// NewTimeoutError reports an exceeded deadline for op
func NewTimeoutError(op string, err error) *Error {
	return &Error{Kind: KindTimeout, Op: op, Err: err}
}

// NewConfigurationError reports a problem with the caller-supplied configuration
func NewConfigurationError(msg string) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

// NewContentEmptyError reports an extraction below the usable length
func NewContentEmptyError() *Error {
	return &Error{Kind: KindContentEmpty, Msg: "response content is empty"}
}

// FromTransport converts a transport error, preferring the timeout kind for deadlines
func FromTransport(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	if isDeadline(err) {
		return NewTimeoutError(op, err)
	}
	return NewConnectionError(op, err)
}

// KindOf classifies an arbitrary error
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if isDeadline(err) {
		return KindTimeout
	}
	return KindConnection
}

func isDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
