package download

import (
	"github.com/tiktoksage/tiktok-sage/internal/model"
)

// Options carries per-job metadata beyond the stream itself
type Options struct {
	URL             string // original video page URL
	Title           string
	Description     string
	SaveDescription bool // write a description sidecar text file on success
	ExtractAudio    bool // take the audio track out of a video stream via ffmpeg
}

// Runner defines the interface for the download job runner.
type Runner interface {
	SetUpdateCallback(func(*model.DownloadJob))
	SetProxy(proxyURL string)
	Start(stream model.StreamDescriptor, destPath string, opts Options) (*model.DownloadJob, error)
	Cancel(jobID string) error
	Get(jobID string) (*model.DownloadJob, bool)
	All() []*model.DownloadJob
}
