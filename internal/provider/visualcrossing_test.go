package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

func TestWindowsSplitsIntoChunkSizeDaySlices(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	ws := windows(start, end, 2)

	want := [][2]time.Time{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	if len(ws) != len(want) {
		t.Fatalf("got %d windows, want %d: %v", len(ws), len(want), ws)
	}
	for i, w := range ws {
		if !w[0].Equal(want[i][0]) || !w[1].Equal(want[i][1]) {
			t.Errorf("window %d = [%v, %v], want [%v, %v]", i, w[0], w[1], want[i][0], want[i][1])
		}
	}
}

func TestVisualCrossingFetchesOneRequestPerChunk(t *testing.T) {
	var requestCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"days":[]}`))
	}))
	defer srv.Close()

	client := httpcore.New(srv.URL, srv.Client(), logrus.NewEntry(logrus.New()))
	p := NewVisualCrossing(client, "test-key", 2)
	if err := p.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) // spans 5 days -> 3 chunks of size 2
	if _, err := p.GetHistoricalWeather(context.Background(), weather.Coordinate{Latitude: 1, Longitude: 1}, start, end); err != nil {
		t.Fatalf("GetHistoricalWeather: %v", err)
	}

	if requestCount != 3 {
		t.Errorf("requestCount = %d, want 3 (one per chunkSizeDays=2 window)", requestCount)
	}
}

func TestNewVisualCrossingFallsBackToDefaultChunkSize(t *testing.T) {
	client := httpcore.New("http://example.invalid", http.DefaultClient, logrus.NewEntry(logrus.New()))
	p := NewVisualCrossing(client, "test-key", 0)
	if p.chunkSizeDays != DefaultChunkSizeDays {
		t.Errorf("chunkSizeDays = %d, want default %d", p.chunkSizeDays, DefaultChunkSizeDays)
	}
}
