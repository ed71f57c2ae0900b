package models

import (
	"errors"
	"fmt"
)

// Exit statuses for the two failure classes, so calling scripts can
// branch on outcome.
const (
	ExitOK          = 0
	ExitInvalidPath = 2
	ExitSyncFailure = 3
)

// PathError reports a missing or invalid path before any copying starts.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid path %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// SyncError reports a failed synchronization step for one
// source/destination pair.
type SyncError struct {
	Source string
	Dest   string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s -> %s failed: %v", e.Source, e.Dest, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// ErrNotDirectory is the cause recorded when a path exists but is not a
// directory.
var ErrNotDirectory = errors.New("not a directory")

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return ExitInvalidPath
	}
	var se *SyncError
	if errors.As(err, &se) {
		return ExitSyncFailure
	}
	return 1
}
