package weather

import "fmt"

// ConfigError signals a malformed or missing configuration value. Fatal at
// startup (CLI exit code 1).
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure (dial/timeout/connection
// reset) from an outbound provider request.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: provider %s: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError carries the status code and URL of a non-2xx response.
type HTTPStatusError struct {
	Status int
	URL    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.URL)
}

// DecodeError signals a response body that could not be parsed into the
// shape a provider adapter expects.
type DecodeError struct {
	Provider string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: provider %s: %v", e.Provider, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnitConversionError signals a value that could not be normalized into the
// canonical unit (e.g. an unparseable numeric field). Treated as a DecodeError
// by callers that only distinguish retryable vs non-retryable failures.
type UnitConversionError struct {
	Provider string
	Field    string
	Err      error
}

func (e *UnitConversionError) Error() string {
	return fmt.Sprintf("unit conversion: provider %s field %s: %v", e.Provider, e.Field, e.Err)
}

func (e *UnitConversionError) Unwrap() error { return e.Err }

// DBIntegrityError signals a write that violated the journal's uniqueness
// constraint (city_id, date, data_source). Callers skip-and-log; it is never
// fatal to a collection run.
type DBIntegrityError struct {
	CityID     int64
	DataSource string
	Err        error
}

func (e *DBIntegrityError) Error() string {
	return fmt.Sprintf("db integrity: city %d source %s: %v", e.CityID, e.DataSource, e.Err)
}

func (e *DBIntegrityError) Unwrap() error { return e.Err }

// CancelError wraps context cancellation surfaced from a blocking operation
// so callers can distinguish "interrupted" from a genuine failure.
type CancelError struct {
	Err error
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("cancelled: %v", e.Err)
}

func (e *CancelError) Unwrap() error { return e.Err }
