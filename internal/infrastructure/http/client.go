package httpinfra

import (
	"context"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent identifies this client to remote tool services
const DefaultUserAgent = "mcpcall/1.0"

// NewClient wraps hc in a resty client. No client-level timeout is set:
// every request carries its own deadline through its context, since a
// client timeout would also cut long-lived event streams.
func NewClient(hc *http.Client, userAgent string) *resty.Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return resty.NewWithClient(hc).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0)
}

// OpenStream issues an event-stream GET and hands back the unread body. The
// body is closed here when the status is not 200; otherwise the caller owns it.
func OpenStream(ctx context.Context, client *resty.Client, url string, headers map[string]string) (io.ReadCloser, int, error) {
	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeaders(MergeHeaders(StreamHeaders, headers)).
		Get(url)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return nil, 0, err
	}

	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		if body != nil {
			io.Copy(io.Discard, io.LimitReader(body, 4096))
			body.Close()
		}
		return nil, resp.StatusCode(), nil
	}
	return body, resp.StatusCode(), nil
}
