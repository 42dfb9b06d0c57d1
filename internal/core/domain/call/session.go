package call

import "encoding/json"

// Session is the callback path and correlation token negotiated for one call
type Session struct {
	Path  string
	Token string
}

// DispatchMode says where the final result of a dispatched request comes from
type DispatchMode int

const (
	// DispatchAsync means the server accepted the request and will publish the
	// result on the session stream
	DispatchAsync DispatchMode = iota
	// DispatchSync means the response body is the result
	DispatchSync
)

func (m DispatchMode) String() string {
	if m == DispatchSync {
		return "sync"
	}
	return "async"
}

// Dispatch is the classified outcome of posting a request envelope
type Dispatch struct {
	Mode      DispatchMode
	RequestID int64
	Status    int
	Body      []byte
}

// DeliveryKind tags what the listener observed on the stream
type DeliveryKind int

const (
	Delivered DeliveryKind = iota
	TimedOut
	ListenFailed
)

func (k DeliveryKind) String() string {
	switch k {
	case Delivered:
		return "delivered"
	case TimedOut:
		return "timeout"
	default:
		return "error"
	}
}

// Delivery is the single message a listener hands to the correlator
type Delivery struct {
	Kind    DeliveryKind
	Payload json.RawMessage
	Err     error
}
