// Package httpapi is the read path: averaged, paginated weather history
// and city search, both specified only at their interface by the
// collection engine but implemented here as documented consumers of the
// journal table.
package httpapi

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/forecastlabs/weather-collector/internal/store"
)

// minSearchQueryLen rejects city-search queries shorter than this.
const minSearchQueryLen = 3

// maxSearchResults caps how many cities a search query can return.
const maxSearchResults = 5

// RegisterRoutes wires the read API's handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, db *store.Store, resolver *store.CityResolver) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		return getWeather(c, db, resolver)
	})

	v1.Get("/cities/search", func(c *fiber.Ctx) error {
		return searchCities(c, db)
	})
}

func getWeather(c *fiber.Ctx, db *store.Store, resolver *store.CityResolver) error {
	lat, lon, err := parseLatLon(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	from, err := parseQueryTime(c.Query("from"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid 'from': "+err.Error())
	}
	to, err := parseQueryTime(c.Query("to"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid 'to': "+err.Error())
	}

	var cursor *time.Time
	if cursorStr := c.Query("cursor"); cursorStr != "" {
		cur, err := parseQueryTime(cursorStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid 'cursor': "+err.Error())
		}
		cursor = &cur
	}

	city, found, err := resolver.Nearest(c.Context(), lat, lon)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve nearest city")
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "no cities in catalog")
	}

	rows, next, err := db.AveragedWeather(c.Context(), city.ID, from, to, cursor)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
	}

	return c.JSON(fiber.Map{
		"city":         city,
		"weather":      rows,
		"next_cursor":  next,
		"result_count": len(rows),
	})
}

func searchCities(c *fiber.Ctx, db *store.Store) error {
	q := c.Query("query")
	if len(q) < minSearchQueryLen {
		return fiber.NewError(fiber.StatusBadRequest, "query must be at least 3 characters")
	}

	cities, err := db.SearchCities(c.Context(), q, maxSearchResults)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to search cities")
	}
	return c.JSON(cities)
}

func parseLatLon(c *fiber.Ctx) (float64, float64, error) {
	latStr := c.Query("lat")
	lonStr := c.Query("long")
	if latStr == "" || lonStr == "" {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "lat and long query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "lat must be a number in [-90, 90]")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "long must be a number in [-180, 180]")
	}
	return lat, lon, nil
}

// parseQueryTime accepts RFC3339 or unix seconds and returns the time in UTC.
func parseQueryTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "timestamp is required")
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid time format; use RFC3339 or unix seconds")
}
