package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const visualCrossingName = "visual_crossing"

// DefaultChunkSizeDays bounds how much time one Visual Crossing request may
// span when a caller doesn't override it; the upstream API caps range
// length, so the window must be split into independent requests and
// concatenated.
const DefaultChunkSizeDays = 2

type visualCrossingResponse struct {
	Days []struct {
		Hours []struct {
			DateTimeEpoch int64   `json:"datetimeEpoch"`
			Temp          float64 `json:"temp"`
			FeelsLike     float64 `json:"feelslike"`
			Humidity      float64 `json:"humidity"`
			WindSpeed     float64  `json:"windspeed"` // km/h
			WindGust      *float64 `json:"windgust"`  // km/h, may be null
			WindDir       float64 `json:"winddir"`
			Pressure      float64 `json:"pressure"`
			CloudCover    float64 `json:"cloudcover"`
			Precip        float64 `json:"precip"`
			Snow          float64 `json:"snow"` // cm
		} `json:"hours"`
	} `json:"days"`
}

// VisualCrossing is the day-chunked provider: the effective window is split
// into chunkSizeDays-day slices, each an independent request.
type VisualCrossing struct {
	weather.Lifecycle
	client        *httpcore.Client
	apiKey        string
	chunkSizeDays int
	breaker       *gobreaker.CircuitBreaker
	limiter       *rate.Limiter
}

// NewVisualCrossing constructs the day-chunked provider. chunkSizeDays of 0
// or less falls back to DefaultChunkSizeDays.
func NewVisualCrossing(client *httpcore.Client, apiKey string, chunkSizeDays int) *VisualCrossing {
	if chunkSizeDays <= 0 {
		chunkSizeDays = DefaultChunkSizeDays
	}
	return &VisualCrossing{
		client:        client,
		apiKey:        apiKey,
		chunkSizeDays: chunkSizeDays,
		breaker:       NewBreaker(visualCrossingName),
		limiter:       NewLimiter(2),
	}
}

func (p *VisualCrossing) Name() string { return visualCrossingName }

func (p *VisualCrossing) Setup(ctx context.Context) error    { return p.MarkSetUp() }
func (p *VisualCrossing) Teardown(ctx context.Context) error { return p.MarkTornDown() }

// windows splits [start, end] into inclusive ChunkSizeDays-day slices,
// capped at end.
func windows(start, end time.Time, chunkDays int) [][2]time.Time {
	var out [][2]time.Time
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, chunkDays) {
		slEnd := cur.AddDate(0, 0, chunkDays-1)
		if slEnd.After(end) {
			slEnd = end
		}
		out = append(out, [2]time.Time{cur, slEnd})
	}
	return out
}

func (p *VisualCrossing) GetHistoricalWeather(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	if err := p.RequireSetUp(); err != nil {
		return nil, err
	}

	var records []weather.Record
	for _, w := range windows(start, end, p.chunkSizeDays) {
		chunk, err := p.fetchChunk(ctx, coord, w[0], w[1])
		if err != nil {
			return nil, err
		}
		for _, r := range chunk {
			if r.Date.Before(start) || r.Date.After(end) {
				continue
			}
			records = append(records, r)
		}
	}
	return records, nil
}

// fetchChunk returns every hour of the calendar days from start's date to
// end's date; the caller trims the result to its own window.
func (p *VisualCrossing) fetchChunk(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	path := fmt.Sprintf("/timeline/%.4f,%.4f/%s/%s",
		coord.Latitude, coord.Longitude, start.Format("2006-01-02"), end.Format("2006-01-02"))

	query := url.Values{}
	query.Set("unitGroup", "metric")
	query.Set("key", p.apiKey)
	query.Set("options", "preview")
	query.Set("contentType", "json")

	result, err := Guarded(ctx, p.limiter, p.breaker, func() (interface{}, error) {
		var resp visualCrossingResponse
		if err := p.client.GetJSON(ctx, path, query, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*visualCrossingResponse)

	var records []weather.Record
	for _, day := range resp.Days {
		for _, h := range day.Hours {
			date := time.Unix(h.DateTimeEpoch, 0).UTC()

			windSpeed := KmhToMs(h.WindSpeed)
			var gust *float64
			if h.WindGust != nil {
				g := KmhToMs(*h.WindGust)
				gust = &g
			}
			gustP := GustOrSpeed(gust, windSpeed)
			apparent := h.FeelsLike
			clouds := h.CloudCover
			precip := h.Precip
			snow := CmToMm(h.Snow)

			records = append(records, weather.Record{
				DataSource:          visualCrossingName,
				Date:                date,
				Temperature:         h.Temp,
				Pressure:            h.Pressure,
				WindSpeed:           windSpeed,
				WindDirection:       h.WindDir,
				Humidity:            h.Humidity,
				Clouds:              &clouds,
				Precipitation:       &precip,
				Snow:                &snow,
				ApparentTemperature: &apparent,
				WindGustSpeed:       gustP,
			})
		}
	}
	return records, nil
}
