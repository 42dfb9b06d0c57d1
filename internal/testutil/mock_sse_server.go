// Package testutil provides an in-process SSE tool server and transport
// helpers for exercising the tool-call client end to end.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one frame the mock server writes to a stream
type Event struct {
	Name string
	Data string
}

// Reply tells the server how to answer a posted envelope
type Reply struct {
	Status int
	Body   string
	// Events are published on the session stream after Delay when Status is 202
	Events []Event
	Delay  time.Duration
}

// RecordedRequest is a tools/call envelope as the server received it
type RecordedRequest struct {
	SessionID string
	JSONRPC   string         `json:"jsonrpc"`
	ID        int64          `json:"id"`
	Method    string         `json:"method"`
	Params    RecordedParams `json:"params"`
}

// RecordedParams holds the tool name and arguments of a recorded request
type RecordedParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolHandler computes the reply for a request
type ToolHandler func(req RecordedRequest) Reply

// MockSSEServer implements the handshake, stream and callback endpoints of
// an SSE tool service
type MockSSEServer struct {
	*httptest.Server

	mu       sync.Mutex
	sessions map[string]*mockSession
	requests []RecordedRequest
	handler  ToolHandler
	nextID   int

	// HandshakeStatus overrides the status of the handshake GET when non-zero
	HandshakeStatus int
	// ListenStatus overrides the status of session stream GETs when non-zero
	ListenStatus int
	// OmitEndpoint makes the handshake stream close without an endpoint frame
	OmitEndpoint bool
	// HandshakePreamble frames are written before the endpoint frame
	HandshakePreamble []Event

	handshakes atomic.Int64
	attaches   atomic.Int64
	posts      atomic.Int64
}

type mockSession struct {
	subscribers []chan Event
}

// Option adjusts the server before it starts accepting connections
type Option func(*MockSSEServer)

// NewMockSSEServer starts a server whose service URL is ServiceURL()
func NewMockSSEServer(handler ToolHandler, opts ...Option) *MockSSEServer {
	s := &MockSSEServer{
		sessions: make(map[string]*mockSession),
		handler:  handler,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.route))
	return s
}

// Close drops any open streams and shuts the server down
func (s *MockSSEServer) Close() {
	s.Server.CloseClientConnections()
	s.Server.Close()
}

// ServiceURL is the handshake URL of the mock service
func (s *MockSSEServer) ServiceURL() string {
	return s.URL + "/svc/sse"
}

// SetHandler replaces the tool handler
func (s *MockSSEServer) SetHandler(h ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Requests returns every envelope received so far
func (s *MockSSEServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

func (s *MockSSEServer) Handshakes() int64 { return s.handshakes.Load() }
func (s *MockSSEServer) Attaches() int64   { return s.attaches.Load() }
func (s *MockSSEServer) Posts() int64      { return s.posts.Load() }

// Publish writes ev to every stream attached to session
func (s *MockSSEServer) Publish(session string, ev Event) {
	s.mu.Lock()
	var subs []chan Event
	if sess, ok := s.sessions[session]; ok {
		subs = append(subs, sess.subscribers...)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *MockSSEServer) route(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/sse"):
		if token := r.URL.Query().Get("session_id"); token != "" {
			s.serveStream(w, r, token)
			return
		}
		s.serveHandshake(w, r)
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/messages"):
		s.serveMessage(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *MockSSEServer) serveHandshake(w http.ResponseWriter, r *http.Request) {
	s.handshakes.Add(1)
	if s.HandshakeStatus != 0 {
		http.Error(w, "handshake rejected", s.HandshakeStatus)
		return
	}

	s.mu.Lock()
	s.nextID++
	token := fmt.Sprintf("sess%04d", s.nextID)
	s.sessions[token] = &mockSession{}
	s.mu.Unlock()

	writeStreamHeaders(w)
	for _, ev := range s.HandshakePreamble {
		writeEvent(w, ev)
	}
	if s.OmitEndpoint {
		return
	}
	writeEvent(w, Event{Name: "endpoint", Data: "/svc/messages/?session_id=" + token})

	// hold the handshake stream open like a real server until the client leaves
	select {
	case <-r.Context().Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *MockSSEServer) serveStream(w http.ResponseWriter, r *http.Request, token string) {
	if s.ListenStatus != 0 {
		http.Error(w, "stream rejected", s.ListenStatus)
		return
	}

	ch := make(chan Event, 16)
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	sess.subscribers = append(sess.subscribers, ch)
	s.mu.Unlock()
	s.attaches.Add(1)

	defer s.unsubscribe(token, ch)

	// a fresh stream announces its own endpoint first, as real servers do
	writeStreamHeaders(w)
	writeEvent(w, Event{Name: "endpoint", Data: "/svc/messages/?session_id=" + token})

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeEvent(w, ev)
		}
	}
}

func (s *MockSSEServer) unsubscribe(token string, ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return
	}
	for i, sub := range sess.subscribers {
		if sub == ch {
			sess.subscribers = append(sess.subscribers[:i], sess.subscribers[i+1:]...)
			return
		}
	}
}

func (s *MockSSEServer) serveMessage(w http.ResponseWriter, r *http.Request) {
	s.posts.Add(1)
	token := r.URL.Query().Get("session_id")

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req RecordedRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, "invalid envelope", http.StatusBadRequest)
		return
	}
	req.SessionID = token

	s.mu.Lock()
	s.requests = append(s.requests, req)
	handler := s.handler
	s.mu.Unlock()

	reply := Reply{Status: http.StatusAccepted}
	if handler != nil {
		reply = handler(req)
	}
	if reply.Status == 0 {
		reply.Status = http.StatusAccepted
	}

	if reply.Status == http.StatusAccepted && len(reply.Events) > 0 {
		go func() {
			if reply.Delay > 0 {
				time.Sleep(reply.Delay)
			}
			for _, ev := range reply.Events {
				s.Publish(token, ev)
			}
		}()
	}

	if reply.Body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(reply.Status)
	io.WriteString(w, reply.Body)
}

func writeStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flush(w)
}

func writeEvent(w http.ResponseWriter, ev Event) {
	if ev.Name != "" {
		fmt.Fprintf(w, "event: %s\n", ev.Name)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	io.WriteString(w, "\n")
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// ResultEvent builds a JSON-RPC result frame carrying text parts
func ResultEvent(id int64, texts ...string) Event {
	parts := make([]map[string]string, len(texts))
	for i, t := range texts {
		parts[i] = map[string]string{"type": "text", "text": t}
	}
	b, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  map[string]any{"content": parts},
	})
	return Event{Name: "message", Data: string(b)}
}

// EchoResult answers every request asynchronously with texts, correlated by id
func EchoResult(delay time.Duration, texts ...string) ToolHandler {
	return func(req RecordedRequest) Reply {
		return Reply{Status: http.StatusAccepted, Events: []Event{ResultEvent(req.ID, texts...)}, Delay: delay}
	}
}
