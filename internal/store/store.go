// Package store is the relational journal: city/weather_journal tables,
// migrations, and the transactional, dedup-aware append used by the
// collector orchestrator.
package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forecastlabs/weather-collector/internal/common"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

// Store wraps a *gorm.DB with the journal's read/write operations.
type Store struct {
	DB  *gorm.DB
	log *logrus.Entry
}

// Open connects to connectionString and runs AutoMigrate for City and
// JournalRow.
func Open(connectionString string, log *logrus.Entry) (*Store, error) {
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, &weather.ConfigError{Field: "db.connection_string", Err: err}
	}

	if err := db.AutoMigrate(&weather.City{}, &weather.JournalRow{}); err != nil {
		return nil, err
	}

	return &Store{DB: db, log: log}, nil
}

// CitiesByPopulationDesc loads every city ordered by population descending,
// the order the orchestrator walks the catalog in.
func (s *Store) CitiesByPopulationDesc(ctx context.Context) ([]weather.City, error) {
	var cities []weather.City
	err := s.DB.WithContext(ctx).Order("population DESC").Find(&cities).Error
	return cities, err
}

// ExistingDates returns the set of dates already journaled for cityID and
// dataSource within [start, end].
func (s *Store) ExistingDates(ctx context.Context, cityID int64, dataSource string, start, end time.Time) (map[time.Time]struct{}, error) {
	var dates []time.Time
	err := s.DB.WithContext(ctx).
		Model(&weather.JournalRow{}).
		Where("city_id = ? AND data_source = ? AND date BETWEEN ? AND ?", cityID, dataSource, start, end).
		Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}

	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		set[d.UTC()] = struct{}{}
	}
	return set, nil
}

// AppendNewRecords writes only the records whose date isn't already present
// for (cityID, dataSource), inside one transaction, each row under its own
// savepoint. A unique-constraint violation rolls back to that savepoint, is
// logged, and the offending row is skipped rather than failing the
// whole batch — another worker inserting overlapping data is expected, not
// exceptional.
func (s *Store) AppendNewRecords(ctx context.Context, cityID int64, records []weather.Record, existing map[time.Time]struct{}) (inserted int, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range records {
			if _, ok := existing[r.Date.UTC()]; ok {
				continue
			}
			row := weather.FromRecord(r, cityID)
			if err := tx.Transaction(func(sp *gorm.DB) error { return sp.Create(&row).Error }); err != nil {
				if common.IsIntegrityViolation(err) {
					s.log.WithFields(logrus.Fields{
						"city_id":     cityID,
						"data_source": r.DataSource,
						"date":        r.Date,
					}).Warn("skipping duplicate journal row")
					continue
				}
				return err
			}
			inserted++
			existing[r.Date.UTC()] = struct{}{}
		}
		return nil
	})
	return inserted, err
}
