package call

import (
	"strings"
	"time"
)

// MinContentLength is the trimmed length content must exceed to count as usable
const MinContentLength = 10

// Usable reports whether content is long enough to be returned as a success
func Usable(content string) bool {
	return len(strings.TrimSpace(content)) > MinContentLength
}

// Result is the one outcome every tool call produces. Success implies usable
// content; failure implies a non-empty error message.
type Result struct {
	Success      bool          `json:"success"`
	Content      string        `json:"content"`
	ServiceName  string        `json:"service_name"`
	Elapsed      time.Duration `json:"elapsed"`
	SessionID    string        `json:"session_id,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	ErrorKind    ErrorKind     `json:"error_kind,omitempty"`
	State        State         `json:"state"`
}

// Succeeded builds a success result, downgrading to ContentEmptyError when
// the content is too short to be usable
func Succeeded(serviceName, content, sessionID string, elapsed time.Duration, state State) Result {
	if !Usable(content) {
		return Failed(serviceName, sessionID, elapsed, state, NewContentEmptyError())
	}
	return Result{
		Success:     true,
		Content:     content,
		ServiceName: serviceName,
		Elapsed:     elapsed,
		SessionID:   sessionID,
		State:       state,
	}
}

// Failed builds a failure result from err
func Failed(serviceName, sessionID string, elapsed time.Duration, state State, err error) Result {
	msg := ""
	if err != nil {
		msg = strings.TrimSpace(err.Error())
	}
	if msg == "" {
		msg = "unknown error"
	}
	return Result{
		Success:      false,
		ServiceName:  serviceName,
		Elapsed:      elapsed,
		SessionID:    sessionID,
		ErrorMessage: msg,
		ErrorKind:    kindOrDefault(err),
		State:        state,
	}
}

func kindOrDefault(err error) ErrorKind {
	if k := KindOf(err); k != KindNone {
		return k
	}
	return KindConnection
}
