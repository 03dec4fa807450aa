package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const worldWeatherOnlineName = "world_weather_online"

type wwoResponse struct {
	Data struct {
		Weather []struct {
			Date   string `json:"date"`
			Hourly []struct {
				Time        string `json:"time"` // "0", "100", ... "2300"
				TempC       string `json:"tempC"`
				WindspeedKm string `json:"windspeedKmph"`
				WinddirDeg  string `json:"winddirDegree"`
				Humidity    string `json:"humidity"`
				PressureMb  string `json:"pressure"`
				Cloudcover  string `json:"cloudcover"`
				PrecipMM    string `json:"precipMM"`
				TotalSnowCm string `json:"totalSnow_cm"`
				WindGustKm  string `json:"WindGustKmph"`
				FeelsLikeC  string `json:"FeelsLikeC"`
			} `json:"hourly"`
		} `json:"weather"`
	} `json:"data"`
}

// WorldWeatherOnline is an archive-style provider whose query uses the
// combined q="lat,lon" parameter form (not separate lat/lon fields).
type WorldWeatherOnline struct {
	weather.Lifecycle
	client  *httpcore.Client
	apiKey  string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewWorldWeatherOnline(client *httpcore.Client, apiKey string) *WorldWeatherOnline {
	return &WorldWeatherOnline{
		client:  client,
		apiKey:  apiKey,
		breaker: NewBreaker(worldWeatherOnlineName),
		limiter: NewLimiter(2),
	}
}

func (p *WorldWeatherOnline) Name() string { return worldWeatherOnlineName }

func (p *WorldWeatherOnline) Setup(ctx context.Context) error    { return p.MarkSetUp() }
func (p *WorldWeatherOnline) Teardown(ctx context.Context) error { return p.MarkTornDown() }

func (p *WorldWeatherOnline) GetHistoricalWeather(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	if err := p.RequireSetUp(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("%.4f,%.4f", coord.Latitude, coord.Longitude))
	query.Set("date", start.Format("2006-01-02"))
	query.Set("enddate", end.Format("2006-01-02"))
	query.Set("tp", "1")
	query.Set("format", "json")
	query.Set("key", p.apiKey)

	result, err := Guarded(ctx, p.limiter, p.breaker, func() (interface{}, error) {
		var resp wwoResponse
		if err := p.client.GetJSON(ctx, "/past-weather.ashx", query, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*wwoResponse)

	var records []weather.Record
	for _, day := range resp.Data.Weather {
		dayTime, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			return nil, &weather.DecodeError{Provider: worldWeatherOnlineName, Err: err}
		}
		for _, h := range day.Hourly {
			hourCode, err := strconv.Atoi(h.Time)
			if err != nil {
				return nil, &weather.DecodeError{Provider: worldWeatherOnlineName, Err: err}
			}
			date := dayTime.Add(time.Duration(hourCode/100) * time.Hour).UTC()
			if date.Before(start) || date.After(end) {
				continue
			}

			windSpeed := KmhToMs(parseF(h.WindspeedKm))
			var gust *float64
			if h.WindGustKm != "" {
				g := KmhToMs(parseF(h.WindGustKm))
				gust = &g
			}
			gust = GustOrSpeed(gust, windSpeed)

			apparent := parseF(h.FeelsLikeC)
			clouds := parseF(h.Cloudcover)
			precip := parseF(h.PrecipMM)
			snow := CmToMm(parseF(h.TotalSnowCm))

			records = append(records, weather.Record{
				DataSource:          worldWeatherOnlineName,
				Date:                date,
				Temperature:         parseF(h.TempC),
				Pressure:            parseF(h.PressureMb),
				WindSpeed:           windSpeed,
				WindDirection:       parseF(h.WinddirDeg),
				Humidity:            parseF(h.Humidity),
				Clouds:              &clouds,
				Precipitation:       &precip,
				Snow:                &snow,
				ApparentTemperature: &apparent,
				WindGustSpeed:       gust,
			})
		}
	}
	return records, nil
}

func parseF(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
