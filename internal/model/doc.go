package model

// Package model defines domain data structures used across the app: video
// metadata and stream descriptors, download jobs, history records, and the
// error taxonomy. Structures are designed for direct binding in the UI and
// explicit state transitions.
