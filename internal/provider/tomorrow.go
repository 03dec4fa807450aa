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

const tomorrowName = "tomorrow"

var tomorrowFields = []string{
	"temperature", "humidity", "windSpeed", "windDirection", "windGust",
	"pressureSeaLevel", "cloudCover", "precipitationIntensity", "snowAccumulation",
}

type tomorrowRequestBody struct {
	Timesteps []string `json:"timesteps"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Fields    []string `json:"fields"`
	Units     string   `json:"units"`
	Location  string   `json:"location"`
}

type tomorrowResponse struct {
	Data struct {
		Timelines []struct {
			Timestep  string `json:"timestep"`
			Intervals []struct {
				StartTime string `json:"startTime"`
				Values    struct {
					Temperature             float64 `json:"temperature"`
					Humidity                float64 `json:"humidity"`
					WindSpeed               float64 `json:"windSpeed"` // m/s already (metric)
					WindDirection           float64 `json:"windDirection"`
					WindGust                *float64 `json:"windGust"`
					PressureSeaLevel        float64 `json:"pressureSeaLevel"`
					CloudCover              float64 `json:"cloudCover"`
					PrecipitationIntensity  float64 `json:"precipitationIntensity"`
					SnowAccumulation        float64 `json:"snowAccumulation"` // cm
				} `json:"values"`
			} `json:"intervals"`
		} `json:"timelines"`
	} `json:"data"`
}

// Tomorrow is the POST-shaped provider. Its location parameter is
// documented as "lon, lat" — the reverse order of every other provider in
// this system — so the location string is built longitude first.
type Tomorrow struct {
	weather.Lifecycle
	client  *httpcore.Client
	apiKey  string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewTomorrow(client *httpcore.Client, apiKey string) *Tomorrow {
	return &Tomorrow{
		client:  client,
		apiKey:  apiKey,
		breaker: NewBreaker(tomorrowName),
		limiter: NewLimiter(2),
	}
}

func (p *Tomorrow) Name() string { return tomorrowName }

func (p *Tomorrow) Setup(ctx context.Context) error    { return p.MarkSetUp() }
func (p *Tomorrow) Teardown(ctx context.Context) error { return p.MarkTornDown() }

func (p *Tomorrow) GetHistoricalWeather(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	if err := p.RequireSetUp(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("apikey", p.apiKey)

	body := tomorrowRequestBody{
		Timesteps: []string{"1h"},
		StartTime: start.UTC().Format(time.RFC3339),
		EndTime:   end.UTC().Format(time.RFC3339),
		Fields:    tomorrowFields,
		Units:     "metric",
		Location:  fmt.Sprintf("%.4f, %.4f", coord.Longitude, coord.Latitude),
	}

	result, err := Guarded(ctx, p.limiter, p.breaker, func() (interface{}, error) {
		var resp tomorrowResponse
		if err := p.client.PostJSON(ctx, "/historical", query, body, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*tomorrowResponse)

	var records []weather.Record
	for _, tl := range resp.Data.Timelines {
		if tl.Timestep != "1h" {
			continue
		}
		for _, iv := range tl.Intervals {
			date, err := time.Parse(time.RFC3339, iv.StartTime)
			if err != nil {
				return nil, &weather.DecodeError{Provider: tomorrowName, Err: err}
			}
			date = date.UTC()
			if date.Before(start) || date.After(end) {
				continue
			}

			var gust *float64
			if iv.Values.WindGust != nil {
				g := *iv.Values.WindGust
				gust = &g
			}
			gust = GustOrSpeed(gust, iv.Values.WindSpeed)

			clouds := iv.Values.CloudCover
			precip := iv.Values.PrecipitationIntensity
			snow := CmToMm(iv.Values.SnowAccumulation)

			records = append(records, weather.Record{
				DataSource:    tomorrowName,
				Date:          date,
				Temperature:   iv.Values.Temperature,
				Pressure:      iv.Values.PressureSeaLevel,
				WindSpeed:     iv.Values.WindSpeed,
				WindDirection: iv.Values.WindDirection,
				Humidity:      iv.Values.Humidity,
				Clouds:        &clouds,
				Precipitation: &precip,
				Snow:          &snow,
				WindGustSpeed: gust,
			})
		}
	}
	return records, nil
}
