package download

// Package download implements the download job runner: a bounded worker pool
// transferring selected streams to disk with progress reporting, cooperative
// cancellation, exclusive destination ownership, and temp-file finalization.
