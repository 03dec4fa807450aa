package store

import (
	"context"
	"sync"
	"time"

	"github.com/forecastlabs/weather-collector/internal/geo"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

// PageSize bounds one page of the averaged weather read API.
const PageSize = 500

// AveragedRow is one date's cross-provider average for a city.
type AveragedRow struct {
	Date          time.Time `gorm:"column:date"`
	Temperature   float64   `gorm:"column:temperature"`
	Pressure      float64   `gorm:"column:pressure"`
	WindSpeed     float64   `gorm:"column:wind_speed"`
	WindDirection float64   `gorm:"column:wind_direction"`
	Humidity      float64   `gorm:"column:humidity"`
	Precipitation float64   `gorm:"column:precipitation"`
	Snow          float64   `gorm:"column:snow"`
}

// averagedWeatherQuery averages temperature, pressure, wind speed and
// direction, humidity, precipitation and snow per distinct date across
// whichever providers reported that hour, ordered by date; clouds,
// apparent_temperature and wind_gust_speed are not included. One
// extra row beyond pageSize is fetched so the caller can synthesize the next
// cursor without a second round trip.
const averagedWeatherQuery = `
SELECT
	date,
	AVG(temperature)   AS temperature,
	AVG(pressure)      AS pressure,
	AVG(wind_speed)    AS wind_speed,
	AVG(wind_direction) AS wind_direction,
	AVG(humidity)      AS humidity,
	AVG(COALESCE(precipitation, 0)) AS precipitation,
	AVG(COALESCE(snow, 0))          AS snow
FROM weather_journal
WHERE city_id = ? AND date >= ? AND date <= ?
GROUP BY date
ORDER BY date
LIMIT ?
`

// AveragedWeather returns up to PageSize averaged rows for cityID starting
// at cursor (or from, if cursor is nil), plus the cursor for the next page
// (nil if this was the last page).
func (s *Store) AveragedWeather(ctx context.Context, cityID int64, from, to time.Time, cursor *time.Time) ([]AveragedRow, *time.Time, error) {
	lowerBound := from
	if cursor != nil {
		lowerBound = *cursor
	}

	var rows []AveragedRow
	err := s.DB.WithContext(ctx).Raw(averagedWeatherQuery, cityID, lowerBound, to, PageSize+1).Scan(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	var next *time.Time
	if len(rows) > PageSize {
		n := rows[PageSize].Date
		next = &n
		rows = rows[:PageSize]
	}
	return rows, next, nil
}

// SearchCities does a case-insensitive prefix match on city name, ordered
// by population descending, capped at limit results.
func (s *Store) SearchCities(ctx context.Context, query string, limit int) ([]weather.City, error) {
	var cities []weather.City
	err := s.DB.WithContext(ctx).
		Where("name ILIKE ?", query+"%").
		Order("population DESC").
		Limit(limit).
		Find(&cities).Error
	return cities, err
}

// CityResolver caches the full city list and a coordinate index in memory
// on first use, so repeated nearest-city lookups from the read API don't
// each re-scan the table.
type CityResolver struct {
	store *Store

	once   sync.Once
	mu     sync.RWMutex
	cities []weather.City
	err    error
}

// NewCityResolver constructs a resolver over store.
func NewCityResolver(store *Store) *CityResolver {
	return &CityResolver{store: store}
}

func (r *CityResolver) ensureLoaded(ctx context.Context) error {
	r.once.Do(func() {
		cities, err := r.store.CitiesByPopulationDesc(ctx)
		r.mu.Lock()
		r.cities, r.err = cities, err
		r.mu.Unlock()
	})
	return r.err
}

// Nearest resolves (lat, lon) to the nearest city by Euclidean distance.
func (r *CityResolver) Nearest(ctx context.Context, lat, lon float64) (weather.City, bool, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return weather.City{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	target := geo.Point{Latitude: lat, Longitude: lon}
	idx := geo.Nearest[weather.City](target, r.cities)
	if idx < 0 {
		return weather.City{}, false, nil
	}
	return r.cities[idx], true, nil
}

// Invalidate forces the next Nearest call to reload the city list, e.g.
// after catalog ingestion adds rows.
func (r *CityResolver) Invalidate() {
	r.mu.Lock()
	r.once = sync.Once{}
	r.cities = nil
	r.err = nil
	r.mu.Unlock()
}
