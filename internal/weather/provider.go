package weather

import (
	"context"
	"fmt"
	"time"
)

// ProviderState tracks the Setup/Teardown lifecycle of a Provider. Zero value
// is Fresh; transitions are one-way (Fresh -> SetUp -> TornDown). Repeating
// a transition into the current state is a no-op; any other out-of-order
// transition returns an error and leaves the state unchanged.
type ProviderState int

const (
	StateFresh ProviderState = iota
	StateSetUp
	StateTornDown
)

func (s ProviderState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateSetUp:
		return "set_up"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Provider abstracts a historical-weather data source. Name must be stable
// and is used as the DataSource discriminator on persisted records.
type Provider interface {
	Name() string
	Setup(ctx context.Context) error
	Teardown(ctx context.Context) error
	GetHistoricalWeather(ctx context.Context, coord Coordinate, start, end time.Time) ([]Record, error)
}

// Lifecycle is embedded by provider implementations to get the idempotent
// Setup/Teardown bookkeeping for free.
type Lifecycle struct {
	state ProviderState
}

// State reports the current lifecycle state.
func (l *Lifecycle) State() ProviderState { return l.state }

// MarkSetUp transitions Fresh -> SetUp. Returns an error if called out of
// order; a caller already SetUp should treat this as a no-op, not an error.
func (l *Lifecycle) MarkSetUp() error {
	if l.state == StateSetUp {
		return nil
	}
	if l.state != StateFresh {
		return fmt.Errorf("cannot set up provider from state %s", l.state)
	}
	l.state = StateSetUp
	return nil
}

// MarkTornDown transitions SetUp -> TornDown. Idempotent once torn down.
func (l *Lifecycle) MarkTornDown() error {
	if l.state == StateTornDown {
		return nil
	}
	if l.state != StateSetUp {
		return fmt.Errorf("cannot tear down provider from state %s", l.state)
	}
	l.state = StateTornDown
	return nil
}

// RequireSetUp returns an error unless the provider has completed Setup and
// has not yet been torn down. Call this at the top of GetHistoricalWeather.
func (l *Lifecycle) RequireSetUp() error {
	if l.state != StateSetUp {
		return fmt.Errorf("provider not set up (state %s)", l.state)
	}
	return nil
}
