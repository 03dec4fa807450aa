package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/forecastlabs/weather-collector/internal/geo"
	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const stationsManifestPath = "/stations/lite.json.gz"

type stationManifestEntry struct {
	ID       string `json:"id"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

// StationIndex resolves a Coordinate to its nearest Station by Euclidean
// distance over an in-memory coordinate matrix, built once at Setup from a
// disk-cached, gzip-compressed JSON manifest.
type StationIndex struct {
	client    *httpcore.Client
	cacheFile string

	stations []weather.Station
}

// NewStationIndex constructs a StationIndex that caches the manifest at
// cacheFile (created if absent).
func NewStationIndex(client *httpcore.Client, cacheFile string) *StationIndex {
	return &StationIndex{client: client, cacheFile: cacheFile}
}

// Setup loads the manifest from disk cache, or downloads and caches it if
// absent, then builds the coordinate matrix.
func (idx *StationIndex) Setup(ctx context.Context) error {
	raw, err := idx.loadCached()
	if err != nil {
		gzipped, err := idx.client.GetRaw(ctx, stationsManifestPath, nil)
		if err != nil {
			return err
		}
		raw, err = decompressGzip(gzipped)
		if err != nil {
			return &weather.DecodeError{Provider: "meteostat", Err: err}
		}
		if err := idx.writeCache(raw); err != nil {
			return err
		}
	}

	var entries []stationManifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return &weather.DecodeError{Provider: "meteostat", Err: err}
	}

	stations := make([]weather.Station, 0, len(entries))
	for _, e := range entries {
		stations = append(stations, weather.Station{
			ID:        e.ID,
			Latitude:  e.Location.Latitude,
			Longitude: e.Location.Longitude,
		})
	}
	idx.stations = stations
	return nil
}

func (idx *StationIndex) loadCached() ([]byte, error) {
	if idx.cacheFile == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(idx.cacheFile)
}

func (idx *StationIndex) writeCache(raw []byte) error {
	if idx.cacheFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(idx.cacheFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(idx.cacheFile, raw, 0o644)
}

func decompressGzip(raw []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// FindNearest returns the Station with the minimum Euclidean distance to
// coord; ties are broken by the lowest index (the manifest's original
// order), matching argmin's natural tie behavior.
func (idx *StationIndex) FindNearest(coord weather.Coordinate) (weather.Station, bool) {
	best := geo.Nearest[weather.Station](coord, idx.stations)
	if best < 0 {
		return weather.Station{}, false
	}
	return idx.stations[best], true
}
