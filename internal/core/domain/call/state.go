package call

// State is a step in the lifecycle of a single tool call
type State string

const (
	StateIdle                    State = "IDLE"
	StateNegotiating             State = "NEGOTIATING"
	StateNegotiationFailed       State = "NEGOTIATION_FAILED"
	StateListeningAndDispatching State = "LISTENING_AND_DISPATCHING"
	StateSynchronousResult       State = "SYNCHRONOUS_RESULT"
	StateAwaitingAsyncResult     State = "AWAITING_ASYNC_RESULT"
	StateAsyncResultReceived     State = "ASYNC_RESULT_RECEIVED"
	StateAsyncTimeout            State = "ASYNC_TIMEOUT"
	StateListenerFailed          State = "LISTENER_FAILED"
	StateDispatchFailed          State = "DISPATCH_FAILED"
	StateConfigurationFailed     State = "CONFIGURATION_FAILED"
)

var transitions = map[State][]State{
	StateIdle:                    {StateNegotiating, StateConfigurationFailed},
	StateNegotiating:             {StateNegotiationFailed, StateListeningAndDispatching},
	StateListeningAndDispatching: {StateSynchronousResult, StateAwaitingAsyncResult, StateDispatchFailed},
	StateAwaitingAsyncResult:     {StateAsyncResultReceived, StateAsyncTimeout, StateListenerFailed},
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

func (s State) String() string {
	return string(s)
}

// CanTransition reports whether from -> to is an edge of the call state machine
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Tracker records the path a call takes through the state machine
type Tracker struct {
	current State
	path    []State
}

// NewTracker starts a tracker in the idle state
func NewTracker() *Tracker {
	return &Tracker{current: StateIdle, path: []State{StateIdle}}
}

// Advance moves to the next state, returning false on an illegal edge
func (t *Tracker) Advance(to State) bool {
	if !CanTransition(t.current, to) {
		return false
	}
	t.current = to
	t.path = append(t.path, to)
	return true
}

// Current returns the state the call is in
func (t *Tracker) Current() State {
	return t.current
}

// Path returns a copy of every state visited so far
func (t *Tracker) Path() []State {
	return append([]State(nil), t.path...)
}
