package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly"

	"github.com/tiktoksage/tiktok-sage/internal/logging"
	"github.com/tiktoksage/tiktok-sage/internal/model"
)

// Fetch constants
const (
	DefaultFetchTimeout = 30 * time.Second
	RetryBackoff        = 2 * time.Second
	MaxRetries          = 1

	// HydrationScriptSelector matches the script tag TikTok embeds its
	// page-state JSON into. The wrapper isolates the rest of the system from
	// this shape: everything is normalized into model.VideoMetadata here.
	HydrationScriptSelector = `script#__UNIVERSAL_DATA_FOR_REHYDRATION__`

	// UserAgent for page requests; TikTok serves the hydration payload to
	// regular browser agents only.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Fetcher resolves a TikTok video URL to normalized metadata. It holds no
// state between requests.
type Fetcher struct {
	proxyURL string
	timeout  time.Duration
	backoff  time.Duration
}

// NewFetcher creates a fetcher. proxyURL may be empty.
func NewFetcher(proxyURL string) *Fetcher {
	return &Fetcher{
		proxyURL: proxyURL,
		timeout:  DefaultFetchTimeout,
		backoff:  RetryBackoff,
	}
}

// FetchMetadata validates the URL shape, scrapes the video page, and returns
// normalized metadata. Network or parse failures surface as *model.FetchError
// after one automatic retry with a short backoff.
func (f *Fetcher) FetchMetadata(ctx context.Context, url string) (*model.VideoMetadata, error) {
	logger := logging.GetLogger("fetch")

	if err := ValidateVideoURL(url); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn().Str("url", url).Int("attempt", attempt+1).Msg("Retrying metadata fetch")
			select {
			case <-time.After(f.backoff):
			case <-ctx.Done():
				return nil, &model.FetchError{Cause: "fetch aborted", Err: ctx.Err()}
			}
		}

		meta, err := f.fetchOnce(url)
		if err == nil {
			logger.Debug().Str("url", url).Str("title", meta.Title).Int("streams", len(meta.Streams)).Msg("Metadata fetched")
			return meta, nil
		}
		lastErr = err
		logger.Warn().Err(err).Str("url", url).Msg("Metadata fetch attempt failed")

		if ctx.Err() != nil {
			return nil, &model.FetchError{Cause: "fetch aborted", Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

// fetchOnce performs a single scrape of the video page
func (f *Fetcher) fetchOnce(url string) (*model.VideoMetadata, error) {
	c := colly.NewCollector(
		colly.UserAgent(UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)
	if f.proxyURL != "" {
		if err := c.SetProxy(f.proxyURL); err != nil {
			return nil, &model.FetchError{Cause: "invalid proxy configuration", Err: err}
		}
	}

	var raw []byte
	var statusCode int
	c.OnHTML(HydrationScriptSelector, func(e *colly.HTMLElement) {
		raw = []byte(e.Text)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		return nil, classifyHTTPError(statusCode, err)
	}
	if len(raw) == 0 {
		return nil, &model.FetchError{Cause: "unexpected page structure, the video may be private or removed"}
	}

	meta, err := parseUniversalData(raw, url)
	if err != nil {
		return nil, &model.FetchError{Cause: "could not parse video page", Err: err}
	}
	return meta, nil
}

// classifyHTTPError maps transport failures to human-readable causes
func classifyHTTPError(statusCode int, err error) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &model.FetchError{Cause: "rate limited by TikTok, try again later", Err: err}
	case statusCode == http.StatusNotFound || statusCode == http.StatusForbidden:
		return &model.FetchError{Cause: "video removed or unavailable", Err: err}
	case statusCode >= 500:
		return &model.FetchError{Cause: "TikTok service error", Err: err}
	default:
		return &model.FetchError{Cause: "network unreachable", Err: err}
	}
}

// universalData mirrors the fragment of TikTok's hydration JSON the fetcher
// reads. Everything else in the payload is ignored.
type universalData struct {
	DefaultScope struct {
		VideoDetail struct {
			ItemInfo struct {
				ItemStruct videoItem `json:"itemStruct"`
			} `json:"itemInfo"`
			StatusCode int `json:"statusCode"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

type videoItem struct {
	Desc   string `json:"desc"`
	Author struct {
		UniqueID string `json:"uniqueId"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Video struct {
		PlayAddr     string `json:"playAddr"`
		DownloadAddr string `json:"downloadAddr"`
		Height       int    `json:"height"`
		Ratio        string `json:"ratio"`
		DataSize     int64  `json:"dataSize"`
	} `json:"video"`
	Music struct {
		Title   string `json:"title"`
		PlayURL string `json:"playUrl"`
	} `json:"music"`
}

// parseUniversalData normalizes the hydration payload into VideoMetadata
func parseUniversalData(raw []byte, url string) (*model.VideoMetadata, error) {
	var data universalData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	detail := data.DefaultScope.VideoDetail
	if detail.StatusCode != 0 {
		return nil, fmt.Errorf("video detail status %d", detail.StatusCode)
	}
	item := detail.ItemInfo.ItemStruct

	meta := &model.VideoMetadata{
		URL:         url,
		Title:       item.Desc,
		Author:      authorLabel(item.Author.Nickname, item.Author.UniqueID),
		Description: item.Desc,
	}

	qualityLabel := item.Video.Ratio
	if qualityLabel == "" && item.Video.Height > 0 {
		qualityLabel = fmt.Sprintf("%dp", item.Video.Height)
	}
	if addr := item.Video.DownloadAddr; addr != "" {
		meta.Streams = append(meta.Streams, model.StreamDescriptor{
			Kind:          model.MediaKindVideo,
			QualityLabel:  qualityLabel,
			EstimatedSize: item.Video.DataSize,
			SourceURL:     addr,
		})
	}
	if addr := item.Video.PlayAddr; addr != "" && addr != item.Video.DownloadAddr {
		meta.Streams = append(meta.Streams, model.StreamDescriptor{
			Kind:          model.MediaKindVideo,
			QualityLabel:  qualityLabel,
			EstimatedSize: item.Video.DataSize,
			SourceURL:     addr,
		})
	}
	if addr := item.Music.PlayURL; addr != "" {
		meta.Streams = append(meta.Streams, model.StreamDescriptor{
			Kind:         model.MediaKindAudio,
			QualityLabel: "audio",
			SourceURL:    addr,
		})
	}

	if len(meta.Streams) == 0 {
		return nil, fmt.Errorf("no playable streams in video page")
	}
	return meta, nil
}

func authorLabel(nickname, uniqueID string) string {
	if nickname != "" {
		return nickname
	}
	return uniqueID
}
