package common

import (
	"errors"
	"testing"
)

func TestHasAny(t *testing.T) {
	if !HasAny("connection reset by peer", "reset", "timeout") {
		t.Error("expected match on 'reset'")
	}
	if HasAny("all good", "error", "fail") {
		t.Error("expected no match")
	}
}

func TestIsIntegrityViolationRecognizesDriverVariants(t *testing.T) {
	cases := []string{
		`ERROR: duplicate key value violates unique constraint "idx_journal_identity"`,
		"UNIQUE constraint failed: weather_journal.city_id",
		"pq: duplicate key value violates unique constraint",
		"SQLSTATE 23505",
	}
	for _, msg := range cases {
		if !IsIntegrityViolation(errors.New(msg)) {
			t.Errorf("expected %q to be recognized as an integrity violation", msg)
		}
	}
}

func TestIsIntegrityViolationRejectsOtherErrors(t *testing.T) {
	if IsIntegrityViolation(errors.New("connection refused")) {
		t.Error("expected a non-integrity error to return false")
	}
	if IsIntegrityViolation(nil) {
		t.Error("expected nil error to return false")
	}
}
