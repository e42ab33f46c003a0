package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
)

const (
	defaultHTTPTimeout        = 60 * time.Second
	defaultHTTPConnectTimeout = 5 * time.Second
	defaultHTTPTLSTimeout     = 5 * time.Second

	maxErrorBody = 4 << 10
)

func defaultHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHTTPConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHTTPTLSTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHTTPTimeout,
	}
}

// ResponseError is returned for a non-2xx HTTP status.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("graphql: http status %d: %s", e.StatusCode, e.Body)
}

// HTTPLink sends queries and mutations as JSON POST requests.
type HTTPLink struct {
	URL    string
	Client *http.Client
	Header http.Header
}

func NewHTTPLink(url string) *HTTPLink {
	return &HTTPLink{URL: url, Client: defaultHTTPClient()}
}

// Do executes op and returns the raw "data" member. GraphQL errors in the
// result are returned as Errors.
func (l *HTTPLink) Do(ctx context.Context, op Operation) (json.RawMessage, error) {
	body, err := json.Marshal(op.Request())
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, vs := range l.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	defer resp.Body.Close()
	glog.V(2).Infof("[http] %s %d in %s", op.Name, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ResponseError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	var res Response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op.Name, err)
	}
	if len(res.Errors) > 0 {
		return nil, res.Errors
	}
	return res.Data, nil
}
