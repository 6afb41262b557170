package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCategories(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		prereq     bool
	}{
		{"manifest missing", fmt.Errorf("read: %w", ErrManifestNotFound), true, false, false},
		{"entity missing", NewNotFound("sample", "x"), true, false, false},
		{"month range", fmt.Errorf("months: %w", ErrInvalidMonthRange), false, true, false},
		{"adapter", ErrUnknownAdapter, false, true, false},
		{"prerequisite", NewPrerequisite("directory './data/parquet'", "run extract first"), false, false, true},
		{"plain", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		if got := IsNotFound(tt.err); got != tt.notFound {
			t.Errorf("%s: IsNotFound = %v, want %v", tt.name, got, tt.notFound)
		}
		if got := IsValidation(tt.err); got != tt.validation {
			t.Errorf("%s: IsValidation = %v, want %v", tt.name, got, tt.validation)
		}
		if got := IsPrerequisite(tt.err); got != tt.prereq {
			t.Errorf("%s: IsPrerequisite = %v, want %v", tt.name, got, tt.prereq)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}

	err := Wrapf(ErrSourceFetch, "month %02d", 3)
	if err.Error() != "month 03: source fetch failed" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !Is(err, ErrSourceFetch) {
		t.Error("wrapped error should match sentinel")
	}
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	if v.Err() != nil {
		t.Fatal("empty collector should return nil")
	}

	v.AddField("extract.month_start", "must be between 1 and 12")
	v.AddMissing("paths.results")
	v.Add(nil)

	if len(v.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors))
	}

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsValidation(err) {
		t.Error("collected errors should classify as validation")
	}
	if !Is(err, ErrMissingField) {
		t.Error("collected errors should unwrap to ErrMissingField")
	}
}
