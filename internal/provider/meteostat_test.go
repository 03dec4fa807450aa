package provider

import (
	"testing"
	"time"
)

func TestParseMeteostatCSVParsesColumnsAndFallsBackGust(t *testing.T) {
	// date,hour,temp,dwpt,rhum,prcp,snow,wdir,wspd,wpgt,pres,tsun,coco
	raw := []byte(
		"2024-01-01,0,5.0,2.0,80,0.5,10,180,18.0,,1012.0,,3\n" +
			"2024-01-01,1,5.2,2.1,81,,,190,19.8,36.0,1011.5,,3\n",
	)

	records, err := parseMeteostatCSV(raw)
	if err != nil {
		t.Fatalf("parseMeteostatCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	wantTS := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !first.Date.Equal(wantTS) {
		t.Errorf("date = %v, want %v", first.Date, wantTS)
	}
	if first.Temperature != 5.0 {
		t.Errorf("temperature = %v, want 5.0", first.Temperature)
	}
	// wpgt column empty -> gust falls back to converted wind speed.
	wantWindSpeed := KmhToMs(18.0)
	if first.WindGustSpeed == nil || *first.WindGustSpeed != wantWindSpeed {
		t.Errorf("gust = %v, want fallback %v", first.WindGustSpeed, wantWindSpeed)
	}
	if first.Precipitation == nil || *first.Precipitation != 0.5 {
		t.Errorf("precipitation = %v, want 0.5", first.Precipitation)
	}

	second := records[1]
	// wpgt column present (36.0 km/h) -> gust must be its own converted value, not the wind speed.
	wantGust := KmhToMs(36.0)
	if second.WindGustSpeed == nil || *second.WindGustSpeed != wantGust {
		t.Errorf("gust = %v, want reported %v", second.WindGustSpeed, wantGust)
	}
	if second.Precipitation != nil {
		t.Errorf("precipitation = %v, want nil for empty column", second.Precipitation)
	}
}

func TestParseMeteostatCSVSkipsShortRows(t *testing.T) {
	raw := []byte("2024-01-01,0,5.0\n")
	records, err := parseMeteostatCSV(raw)
	if err != nil {
		t.Fatalf("parseMeteostatCSV: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected short row to be skipped, got %d records", len(records))
	}
}
