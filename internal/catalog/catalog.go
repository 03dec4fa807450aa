// Package catalog implements the one-shot city catalog bootstrap: download
// a zipped CSV of world cities, filter by population, and upsert into the
// city table keyed by (latitude, longitude).
package catalog

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/forecastlabs/weather-collector/internal/weather"
)

const (
	citiesZipURL        = "https://simplemaps.com/static/data/world-cities/basic/simplemaps_worldcities_basicv1.76.zip"
	citiesCSVEntryName  = "worldcities.csv"
)

// Row is one parsed line of the upstream cities CSV.
type Row struct {
	City       string
	Latitude   float64
	Longitude  float64
	Country    string
	Population int64
}

// Loader downloads (or reads from disk cache) the cities CSV and upserts
// filtered rows into the city table.
type Loader struct {
	httpClient    *http.Client
	cacheFile     string
	minPopulation int64
	log           *logrus.Entry
}

// New constructs a Loader. cacheFile is where the filtered CSV is cached
// across runs; minPopulation is the population floor applied once, at
// fetch time.
func New(httpClient *http.Client, cacheFile string, minPopulation int64, log *logrus.Entry) *Loader {
	return &Loader{
		httpClient:    httpClient,
		cacheFile:     cacheFile,
		minPopulation: minPopulation,
		log:           log,
	}
}

// FetchCitiesList returns the filtered city rows, reading the disk cache if
// present, otherwise downloading and extracting the upstream zip archive and
// writing the cache for next time.
func (l *Loader) FetchCitiesList(ctx context.Context) ([]Row, error) {
	if cached, err := l.readCache(); err == nil {
		return cached, nil
	}

	raw, err := l.downloadZip(ctx)
	if err != nil {
		return nil, err
	}

	all, err := extractCitiesCSV(raw)
	if err != nil {
		return nil, err
	}

	filtered := make([]Row, 0, len(all))
	for _, r := range all {
		if r.Population >= l.minPopulation {
			filtered = append(filtered, r)
		}
	}

	if err := l.writeCache(filtered); err != nil {
		l.log.WithError(err).Warn("failed to write cities cache, continuing without it")
	}

	return filtered, nil
}

func (l *Loader) downloadZip(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, citiesZipURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, &weather.NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, &weather.HTTPStatusError{Status: resp.StatusCode, URL: citiesZipURL}
	}
	return io.ReadAll(resp.Body)
}

func extractCitiesCSV(zipBytes []byte) ([]Row, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, &weather.DecodeError{Provider: "catalog", Err: err}
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == citiesCSVEntryName {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("catalog: %s not found in archive", citiesCSVEntryName)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, &weather.DecodeError{Provider: "catalog", Err: err}
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, &weather.DecodeError{Provider: "catalog", Err: err}
	}
	col := columnIndex(header)

	var rows []Row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &weather.DecodeError{Provider: "catalog", Err: err}
		}

		lat, _ := strconv.ParseFloat(rec[col["lat"]], 64)
		lon, _ := strconv.ParseFloat(rec[col["lng"]], 64)
		population, _ := strconv.ParseFloat(strings.TrimSpace(rec[col["population"]]), 64)

		rows = append(rows, Row{
			City:       rec[col["city"]],
			Latitude:   lat,
			Longitude:  lon,
			Country:    rec[col["country"]],
			Population: int64(population),
		})
	}
	return rows, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func (l *Loader) readCache() ([]Row, error) {
	if l.cacheFile == "" {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(l.cacheFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	var rows []Row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lat, _ := strconv.ParseFloat(rec[1], 64)
		lon, _ := strconv.ParseFloat(rec[2], 64)
		pop, _ := strconv.ParseInt(rec[4], 10, 64)
		rows = append(rows, Row{City: rec[0], Latitude: lat, Longitude: lon, Country: rec[3], Population: pop})
	}
	return rows, nil
}

func (l *Loader) writeCache(rows []Row) error {
	if l.cacheFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.cacheFile), 0o755); err != nil {
		return err
	}
	f, err := os.Create(l.cacheFile)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, r := range rows {
		w.Write([]string{
			r.City,
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			r.Country,
			strconv.FormatInt(r.Population, 10),
		})
	}
	w.Flush()
	return w.Error()
}

// Populate reads existing (latitude, longitude) pairs from the city table,
// then inserts only rows whose coordinate isn't already present, committing
// once.
func (l *Loader) Populate(ctx context.Context, db *gorm.DB, rows []Row) (inserted int, err error) {
	var existing []weather.City
	if err := db.WithContext(ctx).Select("latitude", "longitude").Find(&existing).Error; err != nil {
		return 0, err
	}

	seen := make(map[[2]float64]struct{}, len(existing))
	for _, c := range existing {
		seen[[2]float64{c.Latitude, c.Longitude}] = struct{}{}
	}

	var toInsert []weather.City
	for _, r := range rows {
		key := [2]float64{r.Latitude, r.Longitude}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		toInsert = append(toInsert, weather.City{
			Name:       r.City,
			Country:    r.Country,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Population: r.Population,
		})
	}

	if len(toInsert) == 0 {
		return 0, nil
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&toInsert).Error
	})
	if err != nil {
		return 0, err
	}
	return len(toInsert), nil
}
