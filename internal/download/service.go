package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tiktoksage/tiktok-sage/internal/extract"
	"github.com/tiktoksage/tiktok-sage/internal/logging"
	"github.com/tiktoksage/tiktok-sage/internal/model"
	"github.com/tiktoksage/tiktok-sage/internal/platform"
)

// Transfer constants
const (
	DefaultBufferSize = 32 * 1024
	PartSuffix        = ".part"
	DescriptionSuffix = "_description.txt"
)

// jobState pairs a job with its runtime-only bookkeeping. The job pointer is
// the single source of truth; callbacks receive clones.
type jobState struct {
	job       *model.DownloadJob
	opts      Options
	cancel    context.CancelFunc
	cancelled bool
}

// Service is the download job runner. At most maxParallel transfers run
// concurrently; further jobs queue as pending. Each in-flight destination
// path is owned by exactly one job.
type Service struct {
	states       map[string]*jobState
	destinations map[string]string // destination path -> owning job ID
	jobsMutex    sync.Mutex
	maxParallel  int
	activeCount  int
	client       *http.Client
	onUpdate     func(*model.DownloadJob) // callback for UI updates
}

// NewService creates a download job runner. proxyURL may be empty.
func NewService(maxParallel int, proxyURL string) *Service {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Service{
		states:       make(map[string]*jobState),
		destinations: make(map[string]string),
		maxParallel:  maxParallel,
		client:       newHTTPClient(proxyURL),
	}
}

// SetProxy rebuilds the transfer client so subsequent jobs use the new proxy
// setting. Transfers already in flight keep the client they started with.
func (s *Service) SetProxy(proxyURL string) {
	s.jobsMutex.Lock()
	s.client = newHTTPClient(proxyURL)
	s.jobsMutex.Unlock()
}

// httpClient returns the current transfer client
func (s *Service) httpClient() *http.Client {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()
	return s.client
}

// SetUpdateCallback sets the callback invoked on every job update. For a
// given job, progress values are non-decreasing and the terminal update is
// delivered last, exactly once.
func (s *Service) SetUpdateCallback(callback func(*model.DownloadJob)) {
	s.onUpdate = callback
}

// Start registers a new job for the stream and destination path. A second
// request for a destination already owned by a pending or running job fails
// fast with ErrDestinationBusy.
func (s *Service) Start(stream model.StreamDescriptor, destPath string, opts Options) (*model.DownloadJob, error) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if ownerID, busy := s.destinations[destPath]; busy {
		logging.GetLogger("download").Warn().Str("dest", destPath).Str("owner", ownerID).Msg("Destination already in flight")
		return nil, model.ErrDestinationBusy
	}

	job := &model.DownloadJob{
		ID:        uuid.NewString(),
		URL:       opts.URL,
		Title:     opts.Title,
		Stream:    stream,
		DestPath:  destPath,
		Status:    model.JobStatusPending,
		StartedAt: time.Now(),
	}
	st := &jobState{job: job, opts: opts}
	s.states[job.ID] = st
	s.destinations[destPath] = job.ID

	if s.activeCount < s.maxParallel {
		s.activeCount++
		go s.run(st)
	}

	return job.Clone(), nil
}

// Cancel requests best-effort termination of a job. A running job stops at
// the next transfer chunk; a pending job never promotes to running. Either
// way the job ends failed with a cancelled cause and no partial output file.
func (s *Service) Cancel(jobID string) error {
	s.jobsMutex.Lock()

	st, exists := s.states[jobID]
	if !exists {
		s.jobsMutex.Unlock()
		return fmt.Errorf("job not found: %s", jobID)
	}
	if st.job.Status.IsTerminal() {
		s.jobsMutex.Unlock()
		return fmt.Errorf("job already finished: %s", st.job.Status)
	}

	st.cancelled = true
	if st.cancel != nil {
		// Running: the transfer context unblocks the worker.
		st.cancel()
		s.jobsMutex.Unlock()
		return nil
	}

	// Pending: finish it here, the worker will never pick it up.
	s.finishLocked(st, &model.DownloadError{Cause: "cancelled by user", Err: model.ErrCancelled})
	s.jobsMutex.Unlock()
	return nil
}

// Get returns a snapshot of a job by ID
func (s *Service) Get(jobID string) (*model.DownloadJob, bool) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()
	st, exists := s.states[jobID]
	if !exists {
		return nil, false
	}
	return st.job.Clone(), true
}

// All returns snapshots of every known job
func (s *Service) All() []*model.DownloadJob {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	jobs := make([]*model.DownloadJob, 0, len(s.states))
	for _, st := range s.states {
		jobs = append(jobs, st.job.Clone())
	}
	return jobs
}

// run executes one job on a worker goroutine
func (s *Service) run(st *jobState) {
	logger := logging.GetLogger("download")

	defer func() {
		s.jobsMutex.Lock()
		s.activeCount--
		s.jobsMutex.Unlock()
		s.startNextPending()
	}()

	s.jobsMutex.Lock()
	if st.cancelled || st.job.Status.IsTerminal() {
		s.jobsMutex.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	st.cancel = cancel
	st.job.Status = model.JobStatusRunning
	snapshot := st.job.Clone()
	s.jobsMutex.Unlock()
	defer cancel()

	s.notify(snapshot)
	logger.Info().Str("job", st.job.ID).Str("url", st.job.Stream.SourceURL).Str("dest", st.job.DestPath).Msg("Download started")

	err := s.transfer(ctx, st)

	s.jobsMutex.Lock()
	if err != nil {
		if ctx.Err() == context.Canceled || st.cancelled {
			s.finishLocked(st, &model.DownloadError{Cause: "cancelled by user", Err: model.ErrCancelled})
		} else {
			s.finishLocked(st, err)
		}
		s.jobsMutex.Unlock()
		return
	}
	s.finishLocked(st, nil)
	s.jobsMutex.Unlock()
}

// transfer streams the source to a part file, then finalizes into the
// destination (directly or through audio extraction). On any failure the
// part file and destination are removed.
func (s *Service) transfer(ctx context.Context, st *jobState) error {
	destPath := st.job.DestPath
	partPath := destPath + PartSuffix

	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(destPath)); err != nil {
		return &model.DownloadError{Cause: "cannot create destination directory", Err: err}
	}

	cleanup := func() {
		os.Remove(partPath)
		os.Remove(destPath)
	}

	if err := s.fetchToFile(ctx, st, partPath); err != nil {
		cleanup()
		return err
	}

	if st.opts.ExtractAudio {
		if err := extract.AudioTrack(ctx, partPath, destPath); err != nil {
			cleanup()
			return &model.DownloadError{Cause: "audio extraction failed", Err: err}
		}
		os.Remove(partPath)
	} else {
		if err := os.Rename(partPath, destPath); err != nil {
			cleanup()
			return &model.DownloadError{Cause: "cannot finalize output file", Err: err}
		}
	}

	if st.opts.SaveDescription && st.opts.Description != "" {
		s.writeDescription(destPath, st.opts.Description)
	}
	return nil
}

// fetchToFile performs the chunked HTTP transfer with progress reporting
func (s *Service) fetchToFile(ctx context.Context, st *jobState, partPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.job.Stream.SourceURL, nil)
	if err != nil {
		return &model.DownloadError{Cause: "invalid stream address", Err: err}
	}
	req.Header.Set("Connection", "keep-alive")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return &model.DownloadError{Cause: "network error", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.DownloadError{Cause: fmt.Sprintf("unexpected status code %d", resp.StatusCode)}
	}

	out, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, platform.DefaultFilePermissions)
	if err != nil {
		return &model.DownloadError{Cause: "cannot create output file", Err: err}
	}
	defer out.Close()

	total := resp.ContentLength
	if total <= 0 {
		total = st.job.Stream.EstimatedSize
	}

	var downloaded int64
	buffer := make([]byte, DefaultBufferSize)
	for {
		if ctx.Err() != nil {
			return &model.DownloadError{Cause: "cancelled by user", Err: model.ErrCancelled}
		}
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := out.Write(buffer[:bytesRead]); writeErr != nil {
				return &model.DownloadError{Cause: "cannot write output file", Err: writeErr}
			}
			downloaded += int64(bytesRead)
			s.updateProgress(st, downloaded, total)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return &model.DownloadError{Cause: "transfer interrupted", Err: readErr}
		}
	}
	if err := out.Sync(); err != nil {
		return &model.DownloadError{Cause: "cannot flush output file", Err: err}
	}
	return nil
}

// updateProgress recomputes the percentage and notifies when it advanced.
// Progress is capped below 100 until the terminal update so the terminal
// update is always last.
func (s *Service) updateProgress(st *jobState, downloaded, total int64) {
	if total <= 0 {
		return
	}
	percent := int(downloaded * 100 / total)
	if percent > 99 {
		percent = 99
	}

	s.jobsMutex.Lock()
	if percent <= st.job.Progress || st.job.Status.IsTerminal() {
		s.jobsMutex.Unlock()
		return
	}
	st.job.Progress = percent
	snapshot := st.job.Clone()
	s.jobsMutex.Unlock()

	s.notify(snapshot)
}

// finishLocked moves a job to its terminal state, releases the destination
// and emits the terminal update. Callers hold jobsMutex. A nil err means
// success. Terminal jobs are left untouched, keeping the exactly-once
// guarantee for terminal updates.
func (s *Service) finishLocked(st *jobState, err error) {
	if st.job.Status.IsTerminal() {
		return
	}

	logger := logging.GetLogger("download")
	if err != nil {
		st.job.Status = model.JobStatusFailed
		st.job.LastError = err.Error()
		logger.Warn().Err(err).Str("job", st.job.ID).Msg("Download failed")
	} else {
		st.job.Status = model.JobStatusSucceeded
		st.job.Progress = 100
		logger.Info().Str("job", st.job.ID).Str("dest", st.job.DestPath).Msg("Download completed")
	}
	st.job.FinishedAt = time.Now()
	delete(s.destinations, st.job.DestPath)
	snapshot := st.job.Clone()

	// Emit outside the lock: UI callbacks may call back into the service.
	go s.notify(snapshot)
}

// startNextPending promotes the oldest pending job if capacity allows
func (s *Service) startNextPending() {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if s.activeCount >= s.maxParallel {
		return
	}

	var next *jobState
	for _, st := range s.states {
		if st.job.Status != model.JobStatusPending || st.cancelled {
			continue
		}
		if next == nil || st.job.StartedAt.Before(next.job.StartedAt) {
			next = st
		}
	}
	if next != nil {
		s.activeCount++
		go s.run(next)
	}
}

// writeDescription saves the video description next to the output file.
// Failure to write the sidecar never fails the job.
func (s *Service) writeDescription(destPath, description string) {
	base := strings.TrimSuffix(destPath, filepath.Ext(destPath))
	sidecar := base + DescriptionSuffix
	if err := platform.WriteFileAtomic(sidecar, []byte(description)); err != nil {
		logging.GetLogger("download").Warn().Err(err).Str("path", sidecar).Msg("Could not save description")
		return
	}
	logging.GetLogger("download").Debug().Str("path", sidecar).Msg("Description saved")
}

// notify calls the update callback if set
func (s *Service) notify(job *model.DownloadJob) {
	if s.onUpdate != nil {
		s.onUpdate(job)
	}
}
