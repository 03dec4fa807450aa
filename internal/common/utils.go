package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsIntegrityViolation recognizes the substrings Postgres/gorm surface for a
// unique-constraint violation across drivers, so the journal writer can tell
// a duplicate-row skip from a genuine write failure without depending on a
// specific driver's error type.
func IsIntegrityViolation(err error) bool {
	if err == nil {
		return false
	}
	return HasAny(err.Error(), "duplicate key value", "UNIQUE constraint", "violates unique constraint", "23505")
}
