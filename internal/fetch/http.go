package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// HTTPFetcher is the default net/http-backed Fetcher. It follows
// redirects (the stdlib client's default policy), never errors for an
// HTTP error status, and classifies every transport-level failure into
// the closed NetworkErrorCode set before returning it.
type HTTPFetcher struct {
	Client         *http.Client
	DefaultTimeout time.Duration
}

// NewHTTPFetcher builds an HTTPFetcher with sane defaults: a shared
// client and a 30s default timeout when a Request doesn't specify one.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:         &http.Client{},
		DefaultTimeout: 30 * time.Second,
	}
}

// Fetch performs req and returns a Response, or a *NetworkError if the
// transport itself failed (the request never reached an HTTP response).
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	timeout := f.DefaultTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &NetworkError{Code: FetchFailed, URL: req.URL, Err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, classifyError(req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(req.URL, err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		Ok:         true,
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Headers:    headers,
		FinalURL:   finalURL,
		body:       body,
	}, nil
}

// classifyError maps a transport-level failure onto the closed
// NetworkErrorCode set, preferring the most specific cause it can find
// by unwrapping, and falling back to FetchFailed.
func classifyError(url string, err error) *NetworkError {
	code := FetchFailed

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		code = FetchTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		code = FetchDNSError
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		code = FetchConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		code = FetchConnectionReset
	}

	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		code = FetchSSLError
	}

	return &NetworkError{Code: code, URL: url, Err: err}
}
