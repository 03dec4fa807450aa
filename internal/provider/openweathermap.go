package provider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const openWeatherMapName = "openweathermap"

type owmResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Pressure float64 `json:"pressure"`
			SeaLevel float64 `json:"sea_level"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64  `json:"speed"` // m/s already
			Deg   float64  `json:"deg"`
			Gust  *float64 `json:"gust"`
		} `json:"wind"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Rain struct {
			OneH float64 `json:"1h"`
		} `json:"rain"`
		Snow struct {
			OneH float64 `json:"1h"` // mm already
		} `json:"snow"`
	} `json:"list"`
}

// OpenWeatherMap is an archive-style, key-authenticated provider using unix
// timestamps for its window.
type OpenWeatherMap struct {
	weather.Lifecycle
	client  *httpcore.Client
	apiKey  string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewOpenWeatherMap(client *httpcore.Client, apiKey string) *OpenWeatherMap {
	return &OpenWeatherMap{
		client:  client,
		apiKey:  apiKey,
		breaker: NewBreaker(openWeatherMapName),
		limiter: NewLimiter(2),
	}
}

func (p *OpenWeatherMap) Name() string { return openWeatherMapName }

func (p *OpenWeatherMap) Setup(ctx context.Context) error    { return p.MarkSetUp() }
func (p *OpenWeatherMap) Teardown(ctx context.Context) error { return p.MarkTornDown() }

func (p *OpenWeatherMap) GetHistoricalWeather(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	if err := p.RequireSetUp(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.4f", coord.Latitude))
	query.Set("lon", fmt.Sprintf("%.4f", coord.Longitude))
	query.Set("type", "hour")
	query.Set("start", strconv.FormatInt(start.Unix(), 10))
	query.Set("end", strconv.FormatInt(end.Unix(), 10))
	query.Set("appid", p.apiKey)

	result, err := Guarded(ctx, p.limiter, p.breaker, func() (interface{}, error) {
		var resp owmResponse
		if err := p.client.GetJSON(ctx, "/history/city", query, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*owmResponse)

	records := make([]weather.Record, 0, len(resp.List))
	for _, e := range resp.List {
		date := time.Unix(e.Dt, 0).UTC()
		if date.Before(start) || date.After(end) {
			continue
		}

		pressure := e.Main.SeaLevel
		if pressure == 0 {
			pressure = e.Main.Pressure
		}

		var gust *float64
		if e.Wind.Gust != nil {
			g := *e.Wind.Gust
			gust = &g
		}
		gust = GustOrSpeed(gust, e.Wind.Speed)

		clouds := e.Clouds.All
		precip := e.Rain.OneH
		snow := int64(math.Round(e.Snow.OneH))

		records = append(records, weather.Record{
			DataSource:    openWeatherMapName,
			Date:          date,
			Temperature:   e.Main.Temp,
			Pressure:      pressure,
			WindSpeed:     e.Wind.Speed,
			WindDirection: e.Wind.Deg,
			Humidity:      e.Main.Humidity,
			Clouds:        &clouds,
			Precipitation: &precip,
			Snow:          &snow,
			WindGustSpeed: gust,
		})
	}
	return records, nil
}
