package wms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrTransport 网络层请求失败
	ErrTransport = errors.New("wms: transport error")
	// ErrNotFound the server answered with a not found page
	ErrNotFound = fmt.Errorf("%w: not found", ErrTransport)
	// ErrParse 能力文档解析失败
	ErrParse = errors.New("wms: capabilities parse error")
)

var notFoundMarker = []byte("404 Not Found")

// Transport fetches the raw body at url
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPTransport is a Transport over net/http
type HTTPTransport struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPTransport returns a transport using client, http.DefaultClient when nil
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client, UserAgent: "wmstiler/" + Version}
}

func (t *HTTPTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransport, err)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %s", ErrTransport, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrTransport, resp.StatusCode)
	}
	return body, nil
}

// checkBody rejects bodies that are really a not found page served with 200
func checkBody(body []byte) error {
	if bytes.Contains(body, notFoundMarker) {
		return ErrNotFound
	}
	return nil
}
