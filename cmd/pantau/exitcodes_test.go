package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pantau/pantau/internal/domain"
)

func TestExitCodes_Unique(t *testing.T) {
	codes := []int{
		ExitSuccess,
		ExitGeneralError,
		ExitConfigError,
		ExitValidationError,
		ExitNotFound,
	}

	seen := make(map[int]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate exit code: %d", code)
		}
		seen[code] = true
	}
}

func TestExitCode_FromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"config", fmt.Errorf("%w: bad port", errConfig), ExitConfigError},
		{"validation", domain.NewValidationError([]string{"Jenis sudah ada"}), ExitValidationError},
		{"unknown user", domain.NewUnauthorizedError("Username tidak ditemukan."), ExitNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", domain.NewNotFoundError(domain.EntityAgency, 1)), ExitNotFound},
		{"other", errors.New("disk full"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.expected {
				t.Errorf("exitCode(%v) = %d, expected %d", tt.err, got, tt.expected)
			}
		})
	}
}
