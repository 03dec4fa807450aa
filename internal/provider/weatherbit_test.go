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

const weatherBitFixture = `{
  "data": [
    {
      "timestamp_local": "2024-01-05:00",
      "temp": 4.0,
      "app_temp": 2.0,
      "rh": 85,
      "wind_spd": 10.0,
      "wind_gust_spd": null,
      "wind_dir": 210,
      "pres": 1005.0,
      "slp": 1013.0,
      "clouds": 60,
      "precip": 0.2,
      "snow": 1.0
    }
  ]
}`

func TestWeatherBitUsesSeaLevelPressureWithFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(weatherBitFixture))
	}))
	defer srv.Close()

	client := httpcore.New(srv.URL, srv.Client(), logrus.NewEntry(logrus.New()))
	p := NewWeatherBit(client, "test-key")
	if err := p.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	records, err := p.GetHistoricalWeather(context.Background(), weather.Coordinate{Latitude: 1, Longitude: 1}, start, end)
	if err != nil {
		t.Fatalf("GetHistoricalWeather: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Pressure != 1013.0 {
		t.Errorf("pressure = %v, want sea-level 1013.0", r.Pressure)
	}
	// wind_gust_spd is null -> gust must fall back to reported wind speed.
	if r.WindGustSpeed == nil || *r.WindGustSpeed != 10.0 {
		t.Errorf("wind_gust_speed = %v, want fallback 10.0", r.WindGustSpeed)
	}
	// snow is reported in cm; the canonical unit is mm (x10, not the buggy x1000).
	if r.Snow == nil || *r.Snow != 10 {
		t.Errorf("snow = %v, want 10mm (1.0cm x10)", r.Snow)
	}
}
