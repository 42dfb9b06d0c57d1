package sse

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
	toolcallports "vibedoc.ai/mcpcall/internal/core/ports/toolcall"
	httpinfra "vibedoc.ai/mcpcall/internal/infrastructure/http"
)

const sessionParam = "session_id"

// Negotiator opens the handshake stream and extracts the callback endpoint
type Negotiator struct {
	client       *resty.Client
	logger       *zap.Logger
	maxFrameSize int
}

// NewNegotiator creates a negotiator over client
func NewNegotiator(client *resty.Client, logger *zap.Logger) *Negotiator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Negotiator{client: client, logger: logger, maxFrameSize: DefaultMaxFrameSize}
}

// Negotiate performs the handshake for desc. The stream is closed as soon as
// the endpoint frame is found. There is no retry; callers decide on fallback.
func (n *Negotiator) Negotiate(ctx context.Context, desc service.Descriptor) (call.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, desc.ConnectTimeout())
	defer cancel()

	n.logger.Debug("opening handshake stream", zap.String("service", desc.Key()))

	body, status, err := httpinfra.OpenStream(ctx, n.client, desc.URL(), nil)
	if err != nil {
		return call.Session{}, call.FromTransport("negotiate", err)
	}
	if body == nil {
		return call.Session{}, call.NewStatusError("negotiate", status)
	}
	defer body.Close()

	var session call.Session
	found := false
	readErr := ReadFrames(ctx, body, n.maxFrameSize, func(f Frame) bool {
		path, token, ok := ParseEndpoint(f.Data)
		if !ok {
			return true
		}
		session = call.Session{Path: path, Token: token}
		found = true
		return false
	})

	if found {
		n.logger.Debug("session negotiated", zap.String("service", desc.Key()), zap.String("session_id", session.Token))
		return session, nil
	}
	if readErr != nil {
		return call.Session{}, call.FromTransport("negotiate", readErr)
	}
	return call.Session{}, call.NewProtocolError("negotiate", "stream ended without a session endpoint")
}

// ParseEndpoint extracts the callback path and session token from an
// endpoint frame payload such as "/messages/?session_id=abc"
func ParseEndpoint(data string) (path, token string, ok bool) {
	data = strings.TrimSpace(data)
	if data == "" || !strings.Contains(data, sessionParam+"=") {
		return "", "", false
	}

	u, err := url.Parse(data)
	if err != nil {
		return "", "", false
	}
	if !strings.Contains(u.Path, "/") {
		return "", "", false
	}
	token = u.Query().Get(sessionParam)
	if token == "" {
		return "", "", false
	}
	return data, token, true
}

// withSession appends the session token to a stream URL
func withSession(rawURL, token string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(sessionParam, token)
	u.RawQuery = q.Encode()
	return u.String()
}

var _ toolcallports.Negotiator = (*Negotiator)(nil)
