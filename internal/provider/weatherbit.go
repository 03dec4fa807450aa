package provider

import (
	"fmt"
	"net/url"
	"time"

	"context"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const weatherBitName = "weatherbit"

type weatherBitResponse struct {
	Data []struct {
		Timestamp   string  `json:"timestamp_local"`
		Temp        float64 `json:"temp"`
		AppTemp     float64 `json:"app_temp"`
		RH          float64 `json:"rh"`
		WindSpd     float64  `json:"wind_spd"` // m/s already
		WindGustSpd *float64 `json:"wind_gust_spd"`
		WindDir     float64 `json:"wind_dir"`
		Pres        float64 `json:"pres"`
		SlpPres     float64 `json:"slp"`
		Clouds      float64 `json:"clouds"`
		Precip      float64 `json:"precip"`
		SnowCm      float64 `json:"snow"`
	} `json:"data"`
}

// WeatherBit is an archive-style, key-authenticated provider.
type WeatherBit struct {
	weather.Lifecycle
	client  *httpcore.Client
	apiKey  string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewWeatherBit(client *httpcore.Client, apiKey string) *WeatherBit {
	return &WeatherBit{
		client:  client,
		apiKey:  apiKey,
		breaker: NewBreaker(weatherBitName),
		limiter: NewLimiter(1),
	}
}

func (p *WeatherBit) Name() string { return weatherBitName }

func (p *WeatherBit) Setup(ctx context.Context) error    { return p.MarkSetUp() }
func (p *WeatherBit) Teardown(ctx context.Context) error { return p.MarkTornDown() }

func (p *WeatherBit) GetHistoricalWeather(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	if err := p.RequireSetUp(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.4f", coord.Latitude))
	query.Set("lon", fmt.Sprintf("%.4f", coord.Longitude))
	query.Set("start_date", start.Format("2006-01-02"))
	query.Set("end_date", end.Format("2006-01-02"))
	query.Set("key", p.apiKey)

	result, err := Guarded(ctx, p.limiter, p.breaker, func() (interface{}, error) {
		var resp weatherBitResponse
		if err := p.client.GetJSON(ctx, "/history/hourly", query, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := result.(*weatherBitResponse)

	records := make([]weather.Record, 0, len(resp.Data))
	for _, d := range resp.Data {
		date, err := time.Parse("2006-01-02:15", d.Timestamp)
		if err != nil {
			return nil, &weather.DecodeError{Provider: weatherBitName, Err: err}
		}
		date = date.UTC()
		if date.Before(start) || date.After(end) {
			continue
		}

		pressure := d.SlpPres
		if pressure == 0 {
			pressure = d.Pres
		}

		var gust *float64
		if d.WindGustSpd != nil {
			g := *d.WindGustSpd
			gust = &g
		}
		gust = GustOrSpeed(gust, d.WindSpd)

		apparent := d.AppTemp
		clouds := d.Clouds
		precip := d.Precip
		snow := CmToMm(d.SnowCm)

		records = append(records, weather.Record{
			DataSource:          weatherBitName,
			Date:                date,
			Temperature:         d.Temp,
			Pressure:            pressure,
			WindSpeed:           d.WindSpd,
			WindDirection:       d.WindDir,
			Humidity:            d.RH,
			Clouds:              &clouds,
			Precipitation:       &precip,
			Snow:                &snow,
			ApparentTemperature: &apparent,
			WindGustSpeed:       gust,
		})
	}
	return records, nil
}
