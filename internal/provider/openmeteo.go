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

const openMeteoName = "open_meteo"

var openMeteoHourlyVars = []string{
	"temperature_2m", "relative_humidity_2m", "apparent_temperature",
	"precipitation", "snowfall", "surface_pressure", "cloud_cover",
	"wind_speed_10m", "wind_direction_10m", "wind_gusts_10m",
}

type openMeteoResponse struct {
	Hourly struct {
		Time                []string  `json:"time"`
		Temperature2m       []float64 `json:"temperature_2m"`
		RelativeHumidity2m  []float64 `json:"relative_humidity_2m"`
		ApparentTemperature []float64 `json:"apparent_temperature"`
		Precipitation       []float64 `json:"precipitation"`
		Snowfall            []float64 `json:"snowfall"`
		SurfacePressure     []float64 `json:"surface_pressure"`
		CloudCover          []float64 `json:"cloud_cover"`
		WindSpeed10m        []float64  `json:"wind_speed_10m"`
		WindDirection10m    []float64  `json:"wind_direction_10m"`
		WindGusts10m        []*float64 `json:"wind_gusts_10m"`
	} `json:"hourly"`
}

// OpenMeteo is an archive-style provider: one request per window, returning
// parallel hourly arrays that get zipped into records.
type OpenMeteo struct {
	weather.Lifecycle
	client  *httpcore.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewOpenMeteo constructs the Open-Meteo archive provider. No API key is
// required.
func NewOpenMeteo(client *httpcore.Client) *OpenMeteo {
	return &OpenMeteo{
		client:  client,
		breaker: NewBreaker(openMeteoName),
		limiter: NewLimiter(5),
	}
}

func (p *OpenMeteo) Name() string { return openMeteoName }

func (p *OpenMeteo) Setup(ctx context.Context) error    { return p.MarkSetUp() }
func (p *OpenMeteo) Teardown(ctx context.Context) error { return p.MarkTornDown() }

func (p *OpenMeteo) GetHistoricalWeather(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	if err := p.RequireSetUp(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", coord.Latitude))
	query.Set("longitude", fmt.Sprintf("%.4f", coord.Longitude))
	query.Set("start_date", start.Format("2006-01-02"))
	query.Set("end_date", end.Format("2006-01-02"))
	for _, v := range openMeteoHourlyVars {
		query.Add("hourly", v)
	}

	result, err := Guarded(ctx, p.limiter, p.breaker, func() (interface{}, error) {
		var resp openMeteoResponse
		if err := p.client.GetJSON(ctx, "/archive", query, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*openMeteoResponse)

	records := make([]weather.Record, 0, len(resp.Hourly.Time))
	for i, ts := range resp.Hourly.Time {
		date, err := time.Parse("2006-01-02T15:04", ts)
		if err != nil {
			return nil, &weather.DecodeError{Provider: openMeteoName, Err: err}
		}
		if date.Before(start) || date.After(end) {
			continue
		}

		windSpeed := KmhToMs(at(resp.Hourly.WindSpeed10m, i))
		var gust *float64
		if i < len(resp.Hourly.WindGusts10m) && resp.Hourly.WindGusts10m[i] != nil {
			g := KmhToMs(*resp.Hourly.WindGusts10m[i])
			gust = &g
		}
		gust = GustOrSpeed(gust, windSpeed)

		apparent := at(resp.Hourly.ApparentTemperature, i)
		clouds := at(resp.Hourly.CloudCover, i)
		precip := at(resp.Hourly.Precipitation, i)
		snow := CmToMm(at(resp.Hourly.Snowfall, i))

		records = append(records, weather.Record{
			DataSource:          openMeteoName,
			Date:                date.UTC(),
			Temperature:         at(resp.Hourly.Temperature2m, i),
			Pressure:            at(resp.Hourly.SurfacePressure, i),
			WindSpeed:           windSpeed,
			WindDirection:       at(resp.Hourly.WindDirection10m, i),
			Humidity:            at(resp.Hourly.RelativeHumidity2m, i),
			Clouds:              &clouds,
			Precipitation:       &precip,
			Snow:                &snow,
			ApparentTemperature: &apparent,
			WindGustSpeed:       gust,
		})
	}
	return records, nil
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}
