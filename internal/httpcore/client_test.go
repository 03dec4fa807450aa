package httpcore

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/forecastlabs/weather-collector/internal/weather"
)

func testClient(baseURL string) *Client {
	return New(baseURL, http.DefaultClient, logrus.NewEntry(logrus.New()))
}

func asHTTPStatusError(err error) (*weather.HTTPStatusError, bool) {
	var statusErr *weather.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

func TestGetJSONDecodesPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"value": 42})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var out map[string]int
	if err := c.GetJSON(context.Background(), "/thing", nil, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out["value"] != 42 {
		t.Fatalf("got %v, want value=42", out)
	}
}

func TestGetRawDecompressesGzipBody(t *testing.T) {
	want := []byte(`{"hello":"world"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write(want)
		gz.Close()
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	data, err := c.GetRaw(context.Background(), "/blob", nil)
	if err != nil {
		t.Fatalf("GetRaw: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("got %q, want %q", data, want)
	}
}

func TestGetJSONMapsStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var out map[string]int
	err := c.GetJSON(context.Background(), "/rate-limited", nil, &out)
	if err == nil {
		t.Fatal("expected an error for a 429 response")
	}
	statusErr, ok := asHTTPStatusError(err)
	if !ok {
		t.Fatalf("expected *weather.HTTPStatusError, got %T: %v", err, err)
	}
	if statusErr.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", statusErr.Status, http.StatusTooManyRequests)
	}
}

func TestPostJSONSendsBodyAndDecodesResponse(t *testing.T) {
	var receivedBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var out map[string]bool
	err := c.PostJSON(context.Background(), "/submit", nil, map[string]string{"location": "1.0, 2.0"}, &out)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if !out["ok"] {
		t.Fatalf("got %v, want ok=true", out)
	}
	if receivedBody["location"] != "1.0, 2.0" {
		t.Fatalf("server received body %v, location not forwarded correctly", receivedBody)
	}
}
