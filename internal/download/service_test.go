package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tiktoksage/tiktok-sage/internal/model"
)

// updateCollector records job updates and signals terminal delivery
type updateCollector struct {
	mu       sync.Mutex
	updates  []*model.DownloadJob
	terminal chan *model.DownloadJob
}

func newUpdateCollector() *updateCollector {
	return &updateCollector{terminal: make(chan *model.DownloadJob, 16)}
}

func (c *updateCollector) callback(job *model.DownloadJob) {
	c.mu.Lock()
	c.updates = append(c.updates, job)
	c.mu.Unlock()
	if job.Status.IsTerminal() {
		c.terminal <- job
	}
}

func (c *updateCollector) updatesFor(jobID string) []*model.DownloadJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*model.DownloadJob
	for _, u := range c.updates {
		if u.ID == jobID {
			out = append(out, u)
		}
	}
	return out
}

func (c *updateCollector) waitTerminal(t *testing.T, jobID string) *model.DownloadJob {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case job := <-c.terminal:
			if job.ID == jobID {
				return job
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for terminal update of job %s", jobID)
		}
	}
}

func contentServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func videoStream(url string) model.StreamDescriptor {
	return model.StreamDescriptor{Kind: model.MediaKindVideo, QualityLabel: "720p", SourceURL: url}
}

func TestStartAndComplete(t *testing.T) {
	payload := []byte(strings.Repeat("tiktok-bytes-", 1000))
	server := contentServer(t, payload)

	collector := newUpdateCollector()
	service := NewService(2, "")
	service.SetUpdateCallback(collector.callback)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job, err := service.Start(videoStream(server.URL), dest, Options{URL: "https://www.tiktok.com/@a/video/1", Title: "clip"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	final := collector.waitTerminal(t, job.ID)
	if final.Status != model.JobStatusSucceeded {
		t.Fatalf("Expected Succeeded, got %s (%s)", final.Status, final.LastError)
	}
	if final.Progress != 100 {
		t.Errorf("Expected terminal progress 100, got %d", final.Progress)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Expected output file, got %v", err)
	}
	if len(data) != len(payload) {
		t.Errorf("Expected %d bytes, got %d", len(payload), len(data))
	}

	// No part file left behind
	if _, err := os.Stat(dest + PartSuffix); !os.IsNotExist(err) {
		t.Error("Expected part file to be gone")
	}
}

func TestProgressMonotonicAndTerminalLast(t *testing.T) {
	payload := make([]byte, 512*1024)
	server := contentServer(t, payload)

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job, err := service.Start(videoStream(server.URL), dest, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	collector.waitTerminal(t, job.ID)

	updates := collector.updatesFor(job.ID)
	if len(updates) == 0 {
		t.Fatal("Expected at least one update")
	}

	prev := -1
	for i, u := range updates {
		if u.Progress < prev {
			t.Errorf("Progress regressed at update %d: %d after %d", i, u.Progress, prev)
		}
		prev = u.Progress

		if u.Status.IsTerminal() && i != len(updates)-1 {
			t.Error("Terminal update was not last")
		}
	}

	terminalCount := 0
	for _, u := range updates {
		if u.Status.IsTerminal() {
			terminalCount++
		}
	}
	if terminalCount != 1 {
		t.Errorf("Expected exactly one terminal update, got %d", terminalCount)
	}
}

func TestDestinationConflict(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("data"))
	}))
	defer server.Close()
	defer close(release)

	collector := newUpdateCollector()
	service := NewService(2, "")
	service.SetUpdateCallback(collector.callback)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job1, err := service.Start(videoStream(server.URL), dest, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Second request for the same destination fails fast
	_, err = service.Start(videoStream(server.URL), dest, Options{})
	if !errors.Is(err, model.ErrDestinationBusy) {
		t.Fatalf("Expected ErrDestinationBusy, got %v", err)
	}

	// The first job proceeds unaffected
	release <- struct{}{}
	final := collector.waitTerminal(t, job1.ID)
	if final.Status != model.JobStatusSucceeded {
		t.Errorf("Expected first job to succeed, got %s (%s)", final.Status, final.LastError)
	}
}

func TestDestinationFreedAfterCompletion(t *testing.T) {
	server := contentServer(t, []byte("data"))

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job1, _ := service.Start(videoStream(server.URL), dest, Options{})
	collector.waitTerminal(t, job1.ID)

	// Re-download to the same destination is allowed once the job finished
	job2, err := service.Start(videoStream(server.URL), dest, Options{})
	if err != nil {
		t.Fatalf("Expected re-download to be allowed, got %v", err)
	}
	final := collector.waitTerminal(t, job2.ID)
	if final.Status != model.JobStatusSucceeded {
		t.Errorf("Expected second job to succeed, got %s", final.Status)
	}
}

func TestCancelRunningJob(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64*1024))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		close(started)
		<-block
	}))
	defer server.Close()
	defer close(block)

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job, err := service.Start(videoStream(server.URL), dest, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	<-started
	if err := service.Cancel(job.ID); err != nil {
		t.Fatalf("Expected cancel to succeed, got %v", err)
	}

	final := collector.waitTerminal(t, job.ID)
	if final.Status != model.JobStatusFailed {
		t.Fatalf("Expected Failed, got %s", final.Status)
	}
	if !strings.Contains(final.LastError, "cancelled") {
		t.Errorf("Expected cancelled cause, got %q", final.LastError)
	}

	// No partial file at the destination
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("Expected no file at destination after cancel")
	}
	if _, err := os.Stat(dest + PartSuffix); !os.IsNotExist(err) {
		t.Error("Expected no part file after cancel")
	}
}

func TestCancelPendingJob(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("data"))
	}))
	defer server.Close()

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)

	dir := t.TempDir()
	job1, _ := service.Start(videoStream(server.URL), filepath.Join(dir, "one.mp4"), Options{})

	// Pool of size 1 is saturated, this job stays pending
	job2, err := service.Start(videoStream(server.URL), filepath.Join(dir, "two.mp4"), Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := service.Cancel(job2.ID); err != nil {
		t.Fatalf("Expected cancel to succeed, got %v", err)
	}
	final := collector.waitTerminal(t, job2.ID)
	if final.Status != model.JobStatusFailed {
		t.Fatalf("Expected cancelled pending job to be Failed, got %s", final.Status)
	}

	// First job is unaffected
	close(release)
	final = collector.waitTerminal(t, job1.ID)
	if final.Status != model.JobStatusSucceeded {
		t.Errorf("Expected first job to succeed, got %s", final.Status)
	}
}

func TestQueuedJobRunsAfterActiveFinishes(t *testing.T) {
	server := contentServer(t, []byte("data"))

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)

	dir := t.TempDir()
	job1, _ := service.Start(videoStream(server.URL), filepath.Join(dir, "one.mp4"), Options{})
	job2, _ := service.Start(videoStream(server.URL), filepath.Join(dir, "two.mp4"), Options{})

	collector.waitTerminal(t, job1.ID)
	final := collector.waitTerminal(t, job2.ID)
	if final.Status != model.JobStatusSucceeded {
		t.Errorf("Expected queued job to succeed, got %s (%s)", final.Status, final.LastError)
	}
}

func TestFailedTransferCleansUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job, _ := service.Start(videoStream(server.URL), dest, Options{})

	final := collector.waitTerminal(t, job.ID)
	if final.Status != model.JobStatusFailed {
		t.Fatalf("Expected Failed, got %s", final.Status)
	}
	if !strings.Contains(final.LastError, "404") {
		t.Errorf("Expected status code in error, got %q", final.LastError)
	}
	if _, err := os.Stat(dest + PartSuffix); !os.IsNotExist(err) {
		t.Error("Expected part file to be cleaned up")
	}
}

func TestSaveDescriptionSidecar(t *testing.T) {
	server := contentServer(t, []byte("data"))

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job, err := service.Start(videoStream(server.URL), dest, Options{
		Description:     "my dance clip #fun",
		SaveDescription: true,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	final := collector.waitTerminal(t, job.ID)
	if final.Status != model.JobStatusSucceeded {
		t.Fatalf("Expected Succeeded, got %s", final.Status)
	}

	sidecar := strings.TrimSuffix(dest, ".mp4") + DescriptionSuffix
	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("Expected description sidecar, got %v", err)
	}
	if string(data) != "my dance clip #fun" {
		t.Errorf("Unexpected sidecar content %q", string(data))
	}
}

func TestSetProxyAppliesToLaterTransfers(t *testing.T) {
	var proxied atomic.Bool
	// A plain HTTP forward proxy receives the absolute target URL and can
	// answer for it directly.
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied.Store(true)
		w.Write([]byte("data"))
	}))
	defer proxy.Close()

	collector := newUpdateCollector()
	service := NewService(1, "")
	service.SetUpdateCallback(collector.callback)
	service.SetProxy(proxy.URL)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	job, err := service.Start(videoStream("http://unreachable.invalid/stream.mp4"), dest, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	final := collector.waitTerminal(t, job.ID)
	if final.Status != model.JobStatusSucceeded {
		t.Fatalf("Expected Succeeded via proxy, got %s (%s)", final.Status, final.LastError)
	}
	if !proxied.Load() {
		t.Error("Expected the transfer to go through the configured proxy")
	}
}

func TestFetchToFileErrorsUseDownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	service := NewService(1, "")
	st := &jobState{job: &model.DownloadJob{
		ID:     "taxonomy-check",
		Stream: videoStream(server.URL),
	}}

	err := service.fetchToFile(context.Background(), st, filepath.Join(t.TempDir(), "clip.mp4.part"))
	if err == nil {
		t.Fatal("Expected an error for a 403 response")
	}
	var downloadErr *model.DownloadError
	if !errors.As(err, &downloadErr) {
		t.Fatalf("Expected *model.DownloadError, got %T: %v", err, err)
	}
}

func TestGetAndAll(t *testing.T) {
	server := contentServer(t, []byte("data"))

	collector := newUpdateCollector()
	service := NewService(2, "")
	service.SetUpdateCallback(collector.callback)

	dir := t.TempDir()
	job, _ := service.Start(videoStream(server.URL), filepath.Join(dir, "one.mp4"), Options{Title: "one"})

	got, exists := service.Get(job.ID)
	if !exists {
		t.Fatal("Expected job to exist")
	}
	if got.Title != "one" {
		t.Errorf("Expected title 'one', got %q", got.Title)
	}

	if _, exists := service.Get("no-such-job"); exists {
		t.Error("Expected missing job to not exist")
	}

	if len(service.All()) != 1 {
		t.Errorf("Expected 1 job, got %d", len(service.All()))
	}

	collector.waitTerminal(t, job.ID)
}
