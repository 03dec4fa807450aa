package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const wwoFixture = `{
  "data": {
    "weather": [
      {
        "date": "2024-02-10",
        "hourly": [
          {
            "time": "0",
            "tempC": "2.0",
            "windspeedKmph": "18",
            "winddirDegree": "200",
            "humidity": "88",
            "pressure": "1009",
            "cloudcover": "75",
            "precipMM": "0.0",
            "totalSnow_cm": "0.5",
            "WindGustKmph": "",
            "FeelsLikeC": "0.5"
          }
        ]
      }
    ]
  }
}`

func TestWorldWeatherOnlineUsesCombinedLatLonParam(t *testing.T) {
	var capturedQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(wwoFixture))
	}))
	defer srv.Close()

	client := httpcore.New(srv.URL, srv.Client(), logrus.NewEntry(logrus.New()))
	p := NewWorldWeatherOnline(client, "test-key")
	if err := p.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	start := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 23, 0, 0, 0, time.UTC)
	records, err := p.GetHistoricalWeather(context.Background(), weather.Coordinate{Latitude: 51.5, Longitude: -0.1}, start, end)
	if err != nil {
		t.Fatalf("GetHistoricalWeather: %v", err)
	}

	if got := capturedQuery.Get("q"); got != "51.5000,-0.1000" {
		t.Errorf("q param = %q, want combined lat,lon", got)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	// WindGustKmph is an empty string in the fixture, so gust must fall back to wind speed.
	wantWind := KmhToMs(18)
	if r.WindGustSpeed == nil || *r.WindGustSpeed != wantWind {
		t.Errorf("wind_gust_speed = %v, want fallback %v", r.WindGustSpeed, wantWind)
	}
}

