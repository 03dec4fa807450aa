package httpapi

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// TestParseLatLonValidatesRange verifies parseLatLon accepts well-formed
// coordinates and rejects out-of-range or missing values, without needing a
// live store.
func TestParseLatLonValidatesRange(t *testing.T) {
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		lat, lon, err := parseLatLon(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"lat": lat, "lon": lon})
	})

	cases := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"valid", "?lat=35.68&long=139.69", fiber.StatusOK},
		{"missing lat", "?long=139.69", fiber.StatusBadRequest},
		{"lat out of range", "?lat=190&long=10", fiber.StatusBadRequest},
		{"long out of range", "?lat=10&long=-200", fiber.StatusBadRequest},
		{"non-numeric", "?lat=abc&long=10", fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/probe"+tc.query, nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

func TestParseQueryTimeAcceptsRFC3339AndUnix(t *testing.T) {
	rfc, err := parseQueryTime("2024-01-05T00:00:00Z")
	if err != nil {
		t.Fatalf("parseQueryTime(RFC3339): %v", err)
	}
	if rfc.Year() != 2024 || rfc.Month() != 1 || rfc.Day() != 5 {
		t.Errorf("parsed RFC3339 = %v", rfc)
	}

	unix, err := parseQueryTime("1704412800")
	if err != nil {
		t.Fatalf("parseQueryTime(unix): %v", err)
	}
	if unix.Year() != 2024 {
		t.Errorf("parsed unix = %v", unix)
	}

	if _, err := parseQueryTime("not-a-time"); err == nil {
		t.Fatal("expected an error for an unparseable timestamp")
	}
	if _, err := parseQueryTime(""); err == nil {
		t.Fatal("expected an error for an empty timestamp")
	}
}

func TestSearchCitiesRejectsShortQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		// A short query is rejected before the store is touched, so no
		// store is needed here.
		return searchCities(c, nil)
	})

	req := httptest.NewRequest("GET", "/probe?query=ab", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want 400; body: %s", resp.StatusCode, body)
	}
}
