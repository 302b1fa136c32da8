package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tiktoksage/tiktok-sage/internal/extract"
	"github.com/tiktoksage/tiktok-sage/internal/locale"
	"github.com/tiktoksage/tiktok-sage/internal/model"
)

// streamChoice is one selectable row in the stream picker
type streamChoice struct {
	label        string
	stream       model.StreamDescriptor
	extractAudio bool
}

// ShowStreamSelection opens the stream picker for an analyzed video. The
// callback receives the chosen stream and whether the audio track should be
// extracted from it after the transfer.
func ShowStreamSelection(window fyne.Window, messages *locale.Provider, meta *model.VideoMetadata, audioPreferred bool, onSelect func(model.StreamDescriptor, bool)) {
	choices := buildStreamChoices(messages, meta)
	if len(choices) == 0 {
		return
	}

	labels := make([]string, 0, len(choices))
	for _, c := range choices {
		labels = append(labels, c.label)
	}

	group := widget.NewRadioGroup(labels, nil)
	group.SetSelected(labels[defaultChoiceIndex(choices, audioPreferred)])

	content := container.NewVBox(
		widget.NewLabel(meta.Title),
		widget.NewSeparator(),
		group,
	)

	d := dialog.NewCustomConfirm(
		messages.Resolve(locale.KeySelectStream),
		messages.Resolve(locale.KeyDownload),
		messages.Resolve(locale.KeyCancel),
		content,
		func(confirmed bool) {
			if !confirmed || group.Selected == "" {
				return
			}
			for _, c := range choices {
				if c.label == group.Selected {
					onSelect(c.stream, c.extractAudio)
					return
				}
			}
		},
		window,
	)
	d.Resize(fyne.NewSize(SelectionDialogWidth, 0))
	d.Show()
}

// buildStreamChoices lists video streams plus an audio-only choice. The
// audio-only choice prefers a native audio stream and falls back to
// extracting the track from the best video stream when ffmpeg is present.
func buildStreamChoices(messages *locale.Provider, meta *model.VideoMetadata) []streamChoice {
	var choices []streamChoice

	videoStreams := meta.StreamsOfKind(model.MediaKindVideo)
	seen := map[string]int{}
	for _, stream := range videoStreams {
		label := IconVideo + " " + stream.QualityLabel
		if stream.EstimatedSize > 0 {
			label += MiddleDotSeparator + formatSize(stream.EstimatedSize)
		}
		// Radio group entries must be distinct
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		choices = append(choices, streamChoice{label: label, stream: stream})
	}

	audioLabel := IconAudio + " " + messages.Resolve(locale.KeyAudioOnly)
	if audioStreams := meta.StreamsOfKind(model.MediaKindAudio); len(audioStreams) > 0 {
		choices = append(choices, streamChoice{label: audioLabel, stream: audioStreams[0]})
	} else if len(videoStreams) > 0 && extract.Available() {
		choices = append(choices, streamChoice{label: audioLabel, stream: videoStreams[0], extractAudio: true})
	}

	return choices
}

// defaultChoiceIndex preselects the audio-only row when the settings ask for it
func defaultChoiceIndex(choices []streamChoice, audioPreferred bool) int {
	if !audioPreferred {
		return 0
	}
	for i, c := range choices {
		if c.extractAudio || c.stream.Kind == model.MediaKindAudio {
			return i
		}
	}
	return 0
}

// formatSize renders a byte count in a compact human form
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
