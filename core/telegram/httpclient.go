package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gogermany/gobot/core/telegram/netutil"
)

const (
	dialTimeout     = 5 * time.Second
	keepAlive       = 30 * time.Second
	tlsTimeout      = 5 * time.Second
	idleConnTimeout = 30 * time.Second
	// replyMargin is added on top of the long-poll wait for response deadlines.
	replyMargin = 15 * time.Second
)

// roundTripRetry applies to connection-level failures only; API errors
// come back as HTTP responses and are never replayed here.
var roundTripRetry = netutil.Retry{Attempts: 3, MinInterval: time.Second, MaxInterval: 4 * time.Second}

// BuildHTTPClient returns the HTTP client used for Bot API calls. getUpdates
// holds the response for up to poll, so both deadlines sit above it.
func BuildHTTPClient(poll time.Duration) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: poll + replyMargin,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   poll + 2*replyMargin,
		Transport: &retryTransport{base: base, retry: roundTripRetry},
	}
}

var errBodyNotReplayable = errors.New("telegram: request body cannot be replayed")

type retryTransport struct {
	base  http.RoundTripper
	retry netutil.Retry
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var resp *http.Response
	first := true
	_, err := t.retry.Do(req.Context(), func() error {
		attempt, err := replay(req, first)
		if err != nil {
			return err
		}
		first = false
		resp, err = base.RoundTrip(attempt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// replay returns req for the first call and a fresh clone afterwards.
func replay(req *http.Request, first bool) (*http.Request, error) {
	if first {
		return req, nil
	}
	clone := req.Clone(req.Context())
	if req.Body == nil {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
