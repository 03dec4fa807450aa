// Package weather defines the canonical data model shared by every
// provider, the catalog, and the journal writer.
package weather

import "time"

// Coordinate is an immutable geographic point.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether c falls within the legal lat/lon range.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Lat and Lon satisfy internal/geo.Located.
func (c Coordinate) Lat() float64 { return c.Latitude }
func (c Coordinate) Lon() float64 { return c.Longitude }

// City is a catalog entry; the join key into weather_journal is its
// (Latitude, Longitude) pair, established once by the catalog loader and
// never mutated afterwards.
type City struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string
	Country    string
	Latitude   float64 `gorm:"uniqueIndex:idx_city_coord"`
	Longitude  float64 `gorm:"uniqueIndex:idx_city_coord"`
	Population int64
}

// Coordinate returns the city's location as a Coordinate value.
func (c City) Coordinate() Coordinate {
	return Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Lat and Lon satisfy internal/geo.Located.
func (c City) Lat() float64 { return c.Latitude }
func (c City) Lon() float64 { return c.Longitude }

// Record is the canonical, provider-agnostic hourly observation. Every
// provider adapter normalizes into this shape; optional fields a provider
// doesn't supply are left nil rather than fabricated.
type Record struct {
	DataSource    string
	Date          time.Time // hour-aligned, UTC
	Temperature   float64   // degrees Celsius
	Pressure      float64   // hPa, sea-level where available
	WindSpeed     float64   // m/s
	WindDirection float64   // degrees 0-360
	Humidity      float64   // percent 0-100

	Clouds        *float64 // percent 0-100
	Precipitation *float64 // mm
	Snow          *int64   // mm

	ApparentTemperature *float64 // degrees Celsius
	WindGustSpeed       *float64 // m/s
}

// JournalRow is a Record bound to a city, as persisted in weather_journal.
// The logical key (CityID, Date, DataSource) must be unique.
type JournalRow struct {
	ID            int64     `gorm:"primaryKey"`
	CityID        int64     `gorm:"uniqueIndex:idx_journal_identity"`
	DataSource    string    `gorm:"uniqueIndex:idx_journal_identity"`
	Date          time.Time `gorm:"index;uniqueIndex:idx_journal_identity"`
	Temperature   float64
	Pressure      float64
	WindSpeed     float64
	WindDirection float64
	Humidity      float64

	Clouds        *float64
	Precipitation *float64
	Snow          *int64

	ApparentTemperature *float64
	WindGustSpeed       *float64
}

// TableName pins the GORM model to the schema name used by the spec.
func (JournalRow) TableName() string { return "weather_journal" }

// FromRecord builds a JournalRow out of a canonical Record for a city.
func FromRecord(r Record, cityID int64) JournalRow {
	return JournalRow{
		CityID:              cityID,
		DataSource:          r.DataSource,
		Date:                r.Date,
		Temperature:         r.Temperature,
		Pressure:            r.Pressure,
		WindSpeed:           r.WindSpeed,
		WindDirection:       r.WindDirection,
		Humidity:            r.Humidity,
		Clouds:              r.Clouds,
		Precipitation:       r.Precipitation,
		Snow:                r.Snow,
		ApparentTemperature: r.ApparentTemperature,
		WindGustSpeed:       r.WindGustSpeed,
	}
}

// Station is a fixed measurement point used by the station-keyed bulk
// provider; loaded once at provider Setup.
type Station struct {
	ID        string
	Latitude  float64
	Longitude float64
}

// Lat and Lon satisfy internal/geo.Located.
func (s Station) Lat() float64 { return s.Latitude }
func (s Station) Lon() float64 { return s.Longitude }
