package model

import "strings"

// MediaKind distinguishes video and audio streams
type MediaKind string

const (
	// MediaKindVideo is a full video stream
	MediaKindVideo MediaKind = "video"

	// MediaKindAudio is an audio-only stream (the music track)
	MediaKindAudio MediaKind = "audio"
)

// String returns the string representation of MediaKind
func (mk MediaKind) String() string {
	return string(mk)
}

// FileExtension returns the output file extension for the media kind
func (mk MediaKind) FileExtension() string {
	if mk == MediaKindAudio {
		return ".m4a"
	}
	return ".mp4"
}

// StreamDescriptor describes a selectable audio or video variant of a video.
// SourceURL is the direct delivery address resolved at fetch time.
type StreamDescriptor struct {
	Kind          MediaKind
	QualityLabel  string // e.g. "1080p", "audio"
	EstimatedSize int64  // bytes, 0 if unknown
	SourceURL     string
}

// VideoMetadata is the normalized per-request metadata for a single video.
// It is ephemeral: fetched per request and never persisted.
type VideoMetadata struct {
	URL         string
	Title       string
	Author      string
	Description string
	Streams     []StreamDescriptor
}

// StreamsOfKind returns the streams matching the given media kind, in the
// order they were discovered.
func (vm *VideoMetadata) StreamsOfKind(kind MediaKind) []StreamDescriptor {
	var out []StreamDescriptor
	for _, s := range vm.Streams {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// SafeTitle returns the title sanitized for use as a filename. Path
// separators and whitespace are replaced with underscores; the result is
// truncated to 50 runes like the original description length cap.
func (vm *VideoMetadata) SafeTitle() string {
	title := vm.Title
	if title == "" {
		title = "video"
	}
	runes := []rune(title)
	if len(runes) > 50 {
		title = string(runes[:50])
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_")
	return replacer.Replace(title)
}
