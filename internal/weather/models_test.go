package weather

import (
	"testing"
	"time"

	"github.com/forecastlabs/weather-collector/internal/geo"
)

func TestCoordinateValid(t *testing.T) {
	if !(Coordinate{Latitude: 45, Longitude: 90}).Valid() {
		t.Error("expected (45, 90) to be valid")
	}
	if (Coordinate{Latitude: 91, Longitude: 0}).Valid() {
		t.Error("expected latitude 91 to be invalid")
	}
	if (Coordinate{Latitude: 0, Longitude: 181}).Valid() {
		t.Error("expected longitude 181 to be invalid")
	}
}

// Compile-time checks that the canonical location types satisfy geo.Located,
// the interface internal/geo.Nearest requires.
var (
	_ geo.Located = Coordinate{}
	_ geo.Located = City{}
	_ geo.Located = Station{}
)

func TestFromRecordCarriesOptionalFieldsThrough(t *testing.T) {
	clouds := 42.0
	snow := int64(5)
	r := Record{
		DataSource: "open_meteo",
		Date:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Clouds:     &clouds,
		Snow:       &snow,
	}
	row := FromRecord(r, 7)
	if row.CityID != 7 {
		t.Errorf("CityID = %d, want 7", row.CityID)
	}
	if row.Clouds == nil || *row.Clouds != 42.0 {
		t.Errorf("Clouds = %v, want 42.0", row.Clouds)
	}
	if row.Snow == nil || *row.Snow != 5 {
		t.Errorf("Snow = %v, want 5", row.Snow)
	}
	if row.DataSource != "open_meteo" {
		t.Errorf("DataSource = %q", row.DataSource)
	}
}

func TestJournalRowTableName(t *testing.T) {
	if got := (JournalRow{}).TableName(); got != "weather_journal" {
		t.Errorf("TableName() = %q, want weather_journal", got)
	}
}

func TestCityCoordinate(t *testing.T) {
	c := City{Latitude: 10, Longitude: 20}
	coord := c.Coordinate()
	if coord.Latitude != 10 || coord.Longitude != 20 {
		t.Errorf("Coordinate() = %+v", coord)
	}
}
