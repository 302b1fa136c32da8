package model

import "time"

// DownloadJob represents a single transfer targeting one destination path.
// Progress is a percentage and never decreases for a given job.
type DownloadJob struct {
	ID         string
	URL        string
	Title      string
	Stream     StreamDescriptor
	DestPath   string
	Status     JobStatus
	Progress   int    // 0 to 100, monotonically non-decreasing
	LastError  string // last error message if any
	StartedAt  time.Time
	FinishedAt time.Time
}

// Clone returns a copy of the job safe to hand across goroutines.
func (j *DownloadJob) Clone() *DownloadJob {
	c := *j
	return &c
}

// GetDisplayTitle returns title or URL in order of preference
func (j *DownloadJob) GetDisplayTitle() string {
	if j.Title != "" {
		return j.Title
	}
	return j.URL
}
