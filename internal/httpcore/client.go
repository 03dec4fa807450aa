// Package httpcore is the shared HTTP client every provider builds on: one
// pooled transport, base-URL composition, JSON/raw-body helpers, gzip
// transparent decoding, and status-to-error mapping.
package httpcore

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forecastlabs/weather-collector/internal/weather"
)

// NewTransport returns a tuned *http.Transport sized for fanning out to
// several dozen provider hosts concurrently without re-dialing per request.
func NewTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewSharedClient builds the single *http.Client every provider is
// constructed with, so the connection pool above is actually shared.
func NewSharedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: NewTransport(),
		Timeout:   timeout,
	}
}

// Client composes a base URL with a pooled *http.Client and structured
// request logging; providers embed it rather than touching net/http directly.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *logrus.Entry
}

// New constructs a Client for a single provider host.
func New(baseURL string, httpClient *http.Client, log *logrus.Entry) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Log:     log,
	}
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// GetRaw issues a GET and returns the response body. A body sent with
// Content-Encoding: gzip is decompressed; any other body, including a file
// that is itself gzip content (the stations manifest, the meteostat
// per-station CSVs), is returned as-is for the caller to decompress.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.buildURL(path, query)
	reqID := uuid.NewString()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &weather.NetworkError{Err: err}
	}
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &weather.CancelError{Err: ctx.Err()}
		}
		return nil, &weather.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	entry := c.Log
	if entry != nil {
		entry = entry.WithFields(logrus.Fields{
			"url":         reqURL,
			"status":      resp.StatusCode,
			"duration_ms": elapsed.Milliseconds(),
			"request_id":  reqID,
		})
		entry.Debug("http request complete")
	}

	if resp.StatusCode >= 400 {
		return nil, &weather.HTTPStatusError{Status: resp.StatusCode, URL: reqURL}
	}

	var bodyReader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &weather.DecodeError{Provider: "httpcore", Err: err}
		}
		defer gz.Close()
		bodyReader = gz
	}

	data, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, &weather.DecodeError{Provider: "httpcore", Err: err}
	}
	return data, nil
}

// GetJSON issues a GET and unmarshals the (possibly gzip-encoded) body into
// out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	data, err := c.GetRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &weather.DecodeError{Provider: "httpcore", Err: fmt.Errorf("unmarshal %s: %w", path, err)}
	}
	return nil
}

// PostJSON issues a POST with a JSON body and unmarshals the JSON response
// into out. Used by providers whose API is POST-shaped (e.g. Tomorrow.io).
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, body interface{}, out interface{}) error {
	reqURL := c.buildURL(path, query)
	reqID := uuid.NewString()

	payload, err := json.Marshal(body)
	if err != nil {
		return &weather.DecodeError{Provider: "httpcore", Err: err}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(string(payload)))
	if err != nil {
		return &weather.NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &weather.CancelError{Err: ctx.Err()}
		}
		return &weather.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if entry := c.Log; entry != nil {
		entry.WithFields(logrus.Fields{
			"url":         reqURL,
			"status":      resp.StatusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  reqID,
		}).Debug("http request complete")
	}

	if resp.StatusCode >= 400 {
		return &weather.HTTPStatusError{Status: resp.StatusCode, URL: reqURL}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &weather.DecodeError{Provider: "httpcore", Err: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &weather.DecodeError{Provider: "httpcore", Err: fmt.Errorf("unmarshal %s: %w", path, err)}
	}
	return nil
}
