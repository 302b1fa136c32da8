// Package extract pulls the audio track out of a downloaded video with
// ffmpeg. It is used for audio-only downloads when the source offers no
// standalone audio stream.
package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/tiktoksage/tiktok-sage/internal/logging"
)

// FFmpeg constants for audio extraction
const (
	FFmpegCommand = "ffmpeg"

	// Audio codec settings: copy the AAC track out of the MP4 container
	// without re-encoding.
	AudioCodec  = "copy"
	NoVideoFlag = "-vn"

	OverwriteFlag = "-y"
	LogLevelFlag  = "-loglevel"
	LogLevel      = "error"
)

// Available reports whether ffmpeg is on PATH. The UI disables audio-track
// extraction when it is not.
func Available() bool {
	_, err := exec.LookPath(FFmpegCommand)
	return err == nil
}

// BuildFFmpegArgs constructs the ffmpeg argument list for extracting the
// audio track of inputPath into outputPath
func BuildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		OverwriteFlag,
		LogLevelFlag, LogLevel,
		"-i", inputPath,
		NoVideoFlag,
		"-acodec", AudioCodec,
		outputPath,
	}
}

// AudioTrack extracts the audio track of inputPath into outputPath. The
// partial output is removed on failure or cancellation.
func AudioTrack(ctx context.Context, inputPath, outputPath string) error {
	logger := logging.GetLogger("extract")

	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file does not exist: %w", err)
	}

	args := BuildFFmpegArgs(inputPath, outputPath)
	cmd := exec.CommandContext(ctx, FFmpegCommand, args...)

	logger.Debug().Str("input", inputPath).Str("output", outputPath).Msg("Extracting audio track")
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, string(out))
	}
	return nil
}
