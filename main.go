package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/tiktoksage/tiktok-sage/internal/config"
	"github.com/tiktoksage/tiktok-sage/internal/download"
	"github.com/tiktoksage/tiktok-sage/internal/history"
	"github.com/tiktoksage/tiktok-sage/internal/locale"
	"github.com/tiktoksage/tiktok-sage/internal/logging"
	"github.com/tiktoksage/tiktok-sage/internal/platform"
	"github.com/tiktoksage/tiktok-sage/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.tiktoksage.tiktok-sage"
	AppName = "TikTokSage"

	// Concurrent transfers; further downloads queue as pending
	MaxParallelDownloads = 2
)

func main() {
	logging.InitLogger(os.Getenv("TIKTOKSAGE_DEBUG") != "")
	logger := logging.GetLogger("main")
	logger.Info().Str("version", version).Msg("TikTokSage starting")

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	myWindow.Resize(fyne.NewSize(ui.WindowWidth, ui.WindowHeight))

	// When the app data directory cannot be created, settings and history
	// fall back to in-memory stores and the app still runs.
	appDataDir, err := platform.AppDataDir()
	if err != nil {
		logger.Warn().Err(err).Msg("App data directory unavailable, running without persistence")
		appDataDir = ""
	}

	settingsStore := config.NewStore(appDataDir)
	settings, err := settingsStore.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Settings file unreadable, using defaults")
	}

	historyStore := history.Open(appDataDir)
	defer historyStore.Close()

	messages, err := locale.NewProvider()
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot load localization bundles")
	}
	messages.SetLanguage(settings.Language)

	if err := platform.CreateDirectoryIfNotExists(settings.DownloadDirectory); err != nil {
		logger.Warn().Err(err).Str("dir", settings.DownloadDirectory).Msg("Cannot ensure downloads directory")
	}

	runner := download.NewService(MaxParallelDownloads, settings.Proxy)

	ui.NewRootUI(myWindow, myApp, settingsStore, settings, historyStore, runner, messages)

	myWindow.ShowAndRun()
}
