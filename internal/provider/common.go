// Package provider holds the concrete historical-weather data sources: each
// owns its base URL, auth parameter, query shape, and unit conversion into
// weather.Record. Retry/backoff across 429s and transient failures is the
// collector orchestrator's job (internal/collector); a provider here issues
// its request(s) and returns, wrapped only in a circuit breaker and a local
// rate limiter to avoid hammering a host that is already unhealthy.
package provider

import (
	"context"
	"math"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// NewBreaker builds a per-provider circuit breaker. Five consecutive
// failures trip it open for 30s; tighter than the teacher's MaxRequests-based
// settings since a paid provider left open during a long historical backfill
// is expensive.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return gobreaker.NewCircuitBreaker(st)
}

// NewLimiter builds a local outbound rate limiter for one provider, ratePerSec
// requests per second with a burst of the same size.
func NewLimiter(ratePerSec float64) *rate.Limiter {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return rate.NewLimiter(rate.Limit(ratePerSec), int(math.Max(1, ratePerSec)))
}

// Guarded runs fn through the rate limiter and circuit breaker, in that
// order: the limiter paces outbound calls locally, the breaker protects
// against hammering a provider that is already failing.
func Guarded(ctx context.Context, limiter *rate.Limiter, cb *gobreaker.CircuitBreaker, fn func() (interface{}, error)) (interface{}, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return cb.Execute(fn)
}

// KmhToMs converts km/h to m/s, rounded to 2 decimal places, per the
// canonical record's wind_speed unit.
func KmhToMs(kmh float64) float64 {
	return round2(kmh / 3.6)
}

// CmToMm converts centimeters to millimeters. The physically correct factor
// is 10, not 1000 (an error present in one historical provider
// implementation this system's behavior is grounded on).
func CmToMm(cm float64) int64 {
	return int64(math.Round(cm * 10))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GustOrSpeed returns gust if non-nil, otherwise windSpeed: providers that
// report a null wind gust alongside a valid wind speed substitute the speed
// rather than leaving the field unexplainedly absent.
func GustOrSpeed(gust *float64, windSpeed float64) *float64 {
	if gust != nil {
		return gust
	}
	v := windSpeed
	return &v
}
