package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconHistory  = "🕘"
	IconFolder   = "📁"
	IconFile     = "📄"
	IconClose    = "×"
	IconAudio    = "🎵"
	IconVideo    = "🎬"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
)

// Window and dialog sizing
const (
	WindowWidth  float32 = 640
	WindowHeight float32 = 480

	SettingsDialogWidth  float32 = 500
	SettingsDialogHeight float32 = 360
	HistoryDialogWidth   float32 = 560
	HistoryDialogHeight  float32 = 400
	SelectionDialogWidth float32 = 400
)

// Metadata display limits
const (
	DescriptionMaxRunes = 200
)

// Toast notification sizing and behavior
const (
	ToastWidth    float32 = 300
	ToastHeight   float32 = 120
	ToastMargin   float32 = 20
	ToastAutoHide         = 5 * time.Second
)
