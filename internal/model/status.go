package model

// JobStatus represents the status of a download job
type JobStatus string

const (
	// JobStatusPending means the job is queued but not started
	JobStatusPending JobStatus = "Pending"

	// JobStatusRunning means the transfer is in progress
	JobStatusRunning JobStatus = "Running"

	// JobStatusSucceeded means the job finished successfully
	JobStatusSucceeded JobStatus = "Succeeded"

	// JobStatusFailed means the job failed, including user cancellation
	JobStatusFailed JobStatus = "Failed"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsTerminal returns true if the job is in a terminal state. Terminal states
// admit no further transitions.
func (js JobStatus) IsTerminal() bool {
	return js == JobStatusSucceeded || js == JobStatusFailed
}
