package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: ExitOK,
		},
		{
			name:     "path error",
			err:      &PathError{Path: "/missing", Err: errors.New("no such file or directory")},
			expected: ExitInvalidPath,
		},
		{
			name:     "sync error",
			err:      &SyncError{Source: "a", Dest: "b", Err: errors.New("permission denied")},
			expected: ExitSyncFailure,
		},
		{
			name:     "wrapped path error",
			err:      fmt.Errorf("deploy: %w", &PathError{Path: "/missing", Err: ErrNotDirectory}),
			expected: ExitInvalidPath,
		},
		{
			name:     "wrapped sync error",
			err:      fmt.Errorf("deploy: %w", &SyncError{Source: "a", Dest: "b", Err: errors.New("disk full")}),
			expected: ExitSyncFailure,
		},
		{
			name:     "unexpected error",
			err:      errors.New("boom"),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.expected {
				t.Errorf("ExitCode(%v) = %d; want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestPathErrorMessage(t *testing.T) {
	err := &PathError{Path: "/steam/steamapps", Err: ErrNotDirectory}
	want := `invalid path "/steam/steamapps": not a directory`
	if err.Error() != want {
		t.Errorf("Error() = %q; want %q", err.Error(), want)
	}

	bare := &PathError{Err: errors.New("library root argument is required")}
	if bare.Error() != "library root argument is required" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
