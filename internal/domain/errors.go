package domain

import "errors"

// Move admission errors. None of them create a job.
var (
	ErrInvalidTarget     = errors.New("invalid target location")
	ErrShowNotFound      = errors.New("show not found")
	ErrAlreadyInLocation = errors.New("show already in target location")
	ErrMissingRoot       = errors.New("storage root not configured")
	ErrPathMismatch      = errors.New("show path is outside both storage roots")
	ErrScanInProgress    = errors.New("a library scan is in progress")
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrThumbnailNotFound = errors.New("thumbnail not found")
	ErrAccessDenied      = errors.New("path is outside the configured library")
)

// Scan trigger errors.
var (
	ErrSettingsIncomplete = errors.New("hot and cold roots must be configured")
	ErrJobsActive         = errors.New("move jobs are queued or running")
	ErrScanRunning        = errors.New("a library scan is already running")
)

// MissingRootError names the settings field that was empty.
type MissingRootError struct {
	Field string
}

func (e *MissingRootError) Error() string {
	return ErrMissingRoot.Error() + ": " + e.Field
}

func (e *MissingRootError) Unwrap() error {
	return ErrMissingRoot
}

// Infrastructure failures are wrapped in one of these so callers see a
// closed set of errors.
var (
	ErrStore      = errors.New("store error")
	ErrFilesystem = errors.New("filesystem error")
)
