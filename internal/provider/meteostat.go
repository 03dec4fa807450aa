package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/lrucache"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const meteostatName = "meteostat"

// meteostatCacheSize bounds the per-(station,year) LRU; a correctness-neutral
// speedup tunable, not a correctness requirement.
const meteostatCacheSize = 100

// Meteostat is the station-keyed bulk provider: it resolves the nearest
// station via the StationIndex, fetches whole calendar years of gzipped CSV
// per station concurrently, and filters to the requested window.
type Meteostat struct {
	weather.Lifecycle
	client *httpcore.Client
	index  *StationIndex
	cache  *lrucache.Cache[[]weather.Record]
}

// NewMeteostat constructs the provider. cacheFile is where the station
// manifest is cached on disk (see StationIndex).
func NewMeteostat(client *httpcore.Client, cacheFile string) (*Meteostat, error) {
	cache, err := lrucache.New[[]weather.Record](meteostatCacheSize)
	if err != nil {
		return nil, err
	}
	return &Meteostat{
		client: client,
		index:  NewStationIndex(client, cacheFile),
		cache:  cache,
	}, nil
}

func (p *Meteostat) Name() string { return meteostatName }

func (p *Meteostat) Setup(ctx context.Context) error {
	if err := p.index.Setup(ctx); err != nil {
		return err
	}
	return p.MarkSetUp()
}

func (p *Meteostat) Teardown(ctx context.Context) error { return p.MarkTornDown() }

func (p *Meteostat) GetHistoricalWeather(ctx context.Context, coord weather.Coordinate, start, end time.Time) ([]weather.Record, error) {
	if err := p.RequireSetUp(); err != nil {
		return nil, err
	}

	station, ok := p.index.FindNearest(coord)
	if !ok {
		return nil, &weather.DecodeError{Provider: meteostatName, Err: fmt.Errorf("no stations loaded")}
	}

	years := make([]int, 0, end.Year()-start.Year()+1)
	for y := start.Year(); y <= end.Year(); y++ {
		years = append(years, y)
	}

	type yearResult struct {
		records []weather.Record
		err     error
	}
	results := make(chan yearResult, len(years))
	var wg sync.WaitGroup
	for _, y := range years {
		y := y
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs, err := p.fetchYear(ctx, station.ID, y)
			results <- yearResult{records: recs, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var all []weather.Record
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		all = append(all, r.records...)
	}

	filtered := make([]weather.Record, 0, len(all))
	for _, r := range all {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		filtered = append(filtered, r)
	}

	// Years are fetched concurrently and drained in completion order, not
	// year order, so the concatenated slice must be sorted before it's
	// handed back to the orchestrator.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Date.Before(filtered[j].Date)
	})
	return filtered, nil
}

func (p *Meteostat) fetchYear(ctx context.Context, stationID string, year int) ([]weather.Record, error) {
	key := lrucache.Key{StationID: stationID, Year: year}
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	path := fmt.Sprintf("/hourly/%d/%s.csv.gz", year, stationID)
	gzipped, err := p.client.GetRaw(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(gzipped))
	if err != nil {
		return nil, &weather.DecodeError{Provider: meteostatName, Err: err}
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, &weather.DecodeError{Provider: meteostatName, Err: err}
	}

	records, err := parseMeteostatCSV(raw)
	if err != nil {
		return nil, err
	}

	p.cache.Add(key, records)
	return records, nil
}

// parseMeteostatCSV decodes meteostat's bulk hourly column layout:
// date, hour, temp, dwpt, rhum, prcp, snow, wdir, wspd, wpgt, pres, tsun, coco
func parseMeteostatCSV(raw []byte) ([]weather.Record, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	var records []weather.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &weather.DecodeError{Provider: meteostatName, Err: err}
		}
		if len(row) < 11 {
			continue
		}

		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, &weather.DecodeError{Provider: meteostatName, Err: err}
		}
		hour, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, &weather.DecodeError{Provider: meteostatName, Err: err}
		}
		ts := date.Add(time.Duration(hour) * time.Hour).UTC()

		windSpeed := KmhToMs(parseF(row[8]))
		var gust *float64
		if row[9] != "" {
			g := KmhToMs(parseF(row[9]))
			gust = &g
		}
		gust = GustOrSpeed(gust, windSpeed)

		var precip *float64
		if row[5] != "" {
			v := parseF(row[5])
			precip = &v
		}
		var snowMm *int64
		if row[6] != "" {
			v := int64(parseF(row[6]))
			snowMm = &v
		}

		records = append(records, weather.Record{
			DataSource:    meteostatName,
			Date:          ts,
			Temperature:   parseF(row[2]),
			Pressure:      parseF(row[10]),
			WindSpeed:     windSpeed,
			WindDirection: parseF(row[7]),
			Humidity:      parseF(row[4]),
			Clouds:        nil,
			Precipitation: precip,
			Snow:          snowMm,
			WindGustSpeed: gust,
		})
	}
	return records, nil
}
