package model

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is at the orchestration boundary.
var (
	// ErrInvalidURL means the input does not look like a TikTok video URL.
	// Raised before any network call is attempted.
	ErrInvalidURL = errors.New("invalid TikTok video URL")

	// ErrCancelled is the failure cause of a cancelled job
	ErrCancelled = errors.New("cancelled")

	// ErrDestinationBusy means another in-flight job already owns the
	// destination path
	ErrDestinationBusy = errors.New("destination path already in use by another download")
)

// FetchError wraps a metadata fetch failure with a human-readable cause
// (rate limited, video removed, network unreachable).
type FetchError struct {
	Cause string
	Err   error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch failed: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("fetch failed: %s", e.Cause)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// DownloadError wraps a transfer failure. A cancelled job carries
// ErrCancelled as the underlying error.
type DownloadError struct {
	Cause string
	Err   error
}

// Error implements the error interface
func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download failed: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("download failed: %s", e.Cause)
}

// Unwrap returns the underlying error
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ConfigError reports a corrupt or unreadable settings file. It is non-fatal:
// the config store logs it and falls back to defaults.
type ConfigError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}
