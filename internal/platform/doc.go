package platform

// Package platform contains OS/platform integration: application-data
// directory resolution, atomic file writes, and OS open/reveal of downloaded
// files.
