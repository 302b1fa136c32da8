package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tiktoksage/tiktok-sage/internal/config"
	"github.com/tiktoksage/tiktok-sage/internal/download"
	"github.com/tiktoksage/tiktok-sage/internal/fetch"
	"github.com/tiktoksage/tiktok-sage/internal/history"
	"github.com/tiktoksage/tiktok-sage/internal/locale"
	"github.com/tiktoksage/tiktok-sage/internal/logging"
	"github.com/tiktoksage/tiktok-sage/internal/model"
	"github.com/tiktoksage/tiktok-sage/internal/platform"
)

// Analyze timeout covers the retry inside the fetcher
const AnalyzeTimeout = 75 * time.Second

// RootUI represents the main window: URL entry, metadata card and the
// download progress controls.
type RootUI struct {
	window        fyne.Window
	app           fyne.App
	messages      *locale.Provider
	settingsStore *config.Store
	settings      *config.Settings
	historyStore  *history.Store
	runner        download.Runner

	urlEntry    *widget.Entry
	analyzeBtn  *widget.Button
	downloadBtn *widget.Button
	cancelBtn   *widget.Button
	statusLabel *widget.Label
	progressBar *widget.ProgressBar

	titleLabel       *widget.Label
	authorLabel      *widget.Label
	descriptionLabel *widget.Label
	metadataCard     *fyne.Container

	// currentMeta, activeJobID and the settings snapshot are touched from
	// the Fyne goroutine and from background goroutines. The published
	// *Settings is never mutated; saves swap in a fresh copy.
	stateMutex  sync.Mutex
	currentMeta *model.VideoMetadata
	activeJobID string
}

// currentSettings returns the active settings snapshot. Callers must not
// mutate it; changes go through applySettings.
func (ui *RootUI) currentSettings() *config.Settings {
	ui.stateMutex.Lock()
	defer ui.stateMutex.Unlock()
	return ui.settings
}

// applySettings publishes a new settings snapshot and propagates the proxy
// to the download runner
func (ui *RootUI) applySettings(updated *config.Settings) {
	ui.stateMutex.Lock()
	ui.settings = updated
	ui.stateMutex.Unlock()

	ui.runner.SetProxy(updated.Proxy)
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, settingsStore *config.Store, settings *config.Settings, historyStore *history.Store, runner download.Runner, messages *locale.Provider) *RootUI {
	ui := &RootUI{
		window:        window,
		app:           app,
		messages:      messages,
		settingsStore: settingsStore,
		settings:      settings,
		historyStore:  historyStore,
		runner:        runner,
	}

	window.SetTitle(messages.Resolve(locale.KeyAppTitle))

	// Job updates arrive on download worker goroutines
	ui.runner.SetUpdateCallback(ui.onJobUpdate)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder(ui.messages.Resolve(locale.KeyEnterURL))
	ui.urlEntry.OnSubmitted = func(string) {
		ui.onAnalyzeClick()
	}

	ui.analyzeBtn = widget.NewButton(ui.messages.Resolve(locale.KeyAnalyze), ui.onAnalyzeClick)
	ui.analyzeBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance
	historyBtn := widget.NewButton(IconHistory, ui.onShowHistory)
	historyBtn.Importance = widget.LowImportance

	topPanel := container.NewBorder(nil, nil, container.NewHBox(settingsBtn, historyBtn), ui.analyzeBtn, ui.urlEntry)

	// Metadata card, hidden until the first successful analyze
	ui.titleLabel = widget.NewLabel("")
	ui.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	ui.titleLabel.Wrapping = fyne.TextWrapWord
	ui.authorLabel = widget.NewLabel("")
	ui.descriptionLabel = widget.NewLabel("")
	ui.descriptionLabel.Wrapping = fyne.TextWrapWord

	ui.downloadBtn = widget.NewButton(ui.messages.Resolve(locale.KeyDownload), ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	ui.metadataCard = container.NewVBox(
		widget.NewSeparator(),
		ui.titleLabel,
		ui.authorLabel,
		ui.descriptionLabel,
		ui.downloadBtn,
	)
	ui.metadataCard.Hide()

	// Progress area
	ui.statusLabel = widget.NewLabel(ui.messages.Resolve(locale.KeyStatusReady))
	ui.progressBar = widget.NewProgressBar()
	ui.progressBar.Hide()
	ui.cancelBtn = widget.NewButton(ui.messages.Resolve(locale.KeyCancel), ui.onCancelClick)
	ui.cancelBtn.Hide()

	bottomPanel := container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, ui.cancelBtn, ui.statusLabel),
		ui.progressBar,
	)

	content := container.NewBorder(
		container.NewVBox(topPanel, ui.metadataCard), // top
		bottomPanel, // bottom
		nil,         // left
		nil,         // right
		widget.NewLabel(""),
	)

	ui.window.SetContent(content)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem(ui.messages.Resolve(locale.KeySettings), ui.onShowSettings)
	historyItem := fyne.NewMenuItem(ui.messages.Resolve(locale.KeyHistory), ui.onShowHistory)

	languageMenu := fyne.NewMenu(ui.messages.Resolve(locale.KeyLanguage))
	for code, name := range ui.messages.AvailableLanguages() {
		langCode := code // Capture for closure
		langItem := fyne.NewMenuItem(name, func() {
			ui.onLanguageChange(langCode)
		})
		if ui.messages.CurrentLanguage() == code {
			langItem.Checked = true
		}
		languageMenu.Items = append(languageMenu.Items, langItem)
	}

	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu(ui.messages.Resolve(locale.KeyAppTitle), settingsItem, historyItem),
		languageMenu,
	)

	ui.window.SetMainMenu(mainMenu)
}

// onLanguageChange switches the UI language and persists the choice
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.messages.SetLanguage(langCode)

	updated := *ui.currentSettings()
	updated.Language = langCode
	ui.applySettings(&updated)
	if err := ui.settingsStore.Save(&updated); err != nil {
		logging.GetLogger("ui").Warn().Err(err).Msg("Cannot persist language change")
	}

	ui.refreshUITexts()
	ui.createMenu()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	ui.window.SetTitle(ui.messages.Resolve(locale.KeyAppTitle))
	ui.urlEntry.SetPlaceHolder(ui.messages.Resolve(locale.KeyEnterURL))
	ui.analyzeBtn.SetText(ui.messages.Resolve(locale.KeyAnalyze))
	ui.downloadBtn.SetText(ui.messages.Resolve(locale.KeyDownload))
	ui.cancelBtn.SetText(ui.messages.Resolve(locale.KeyCancel))
	ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyStatusReady))
}

// onAnalyzeClick validates the entered URL and fetches metadata in the
// background
func (ui *RootUI) onAnalyzeClick() {
	urlText := strings.TrimSpace(ui.urlEntry.Text)
	if urlText == "" {
		ui.showPopup(ui.messages.Resolve(locale.KeyPleaseEnterURL))
		return
	}

	if err := fetch.ValidateVideoURL(urlText); err != nil {
		ui.showPopup(ui.messages.Resolve(locale.KeyInvalidURL))
		return
	}

	ui.analyzeBtn.Disable()
	ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyStatusFetching))

	logging.GetLogger("ui").Info().Str("url", urlText).Msg("Analyzing URL")

	// Built on the Fyne goroutine so the background fetch never touches the
	// shared settings.
	fetcher := fetch.NewFetcher(ui.currentSettings().Proxy)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), AnalyzeTimeout)
		defer cancel()

		meta, err := fetcher.FetchMetadata(ctx, urlText)

		fyne.Do(func() {
			ui.analyzeBtn.Enable()
			if err != nil {
				logging.GetLogger("ui").Error().Err(err).Str("url", urlText).Msg("Metadata fetch failed")
				ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyStatusReady))
				ui.showPopup(ui.messages.Resolve(locale.KeyFetchFailed) + ": " + err.Error())
				return
			}

			ui.stateMutex.Lock()
			ui.currentMeta = meta
			ui.stateMutex.Unlock()

			ui.titleLabel.SetText(meta.Title)
			ui.authorLabel.SetText(ui.messages.Resolve(locale.KeyAuthor) + MiddleDotSeparator + meta.Author)
			ui.descriptionLabel.SetText(truncateRunes(meta.Description, DescriptionMaxRunes))
			ui.metadataCard.Show()
			ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyStatusReady))
		})
	}()
}

// onDownloadClick opens the stream selection for the analyzed video
func (ui *RootUI) onDownloadClick() {
	ui.stateMutex.Lock()
	meta := ui.currentMeta
	ui.stateMutex.Unlock()
	if meta == nil {
		return
	}

	ShowStreamSelection(ui.window, ui.messages, meta, ui.currentSettings().AudioOnlyDefault, func(stream model.StreamDescriptor, extractAudio bool) {
		ui.startDownload(meta, stream, extractAudio)
	})
}

// startDownload hands the chosen stream to the runner
func (ui *RootUI) startDownload(meta *model.VideoMetadata, stream model.StreamDescriptor, extractAudio bool) {
	ext := stream.Kind.FileExtension()
	if extractAudio {
		ext = model.MediaKindAudio.FileExtension()
	}
	settings := ui.currentSettings()
	destPath := platform.UniquePath(filepath.Join(settings.DownloadDirectory, meta.SafeTitle()+ext))

	job, err := ui.runner.Start(stream, destPath, download.Options{
		URL:             meta.URL,
		Title:           meta.Title,
		Description:     meta.Description,
		SaveDescription: settings.SaveDescription,
		ExtractAudio:    extractAudio,
	})
	if err != nil {
		if errors.Is(err, model.ErrDestinationBusy) {
			ui.showPopup(ui.messages.Resolve(locale.KeyDestinationBusy))
		} else {
			ui.showPopup(ui.messages.Resolve(locale.KeyDownloadFailed) + ": " + err.Error())
		}
		return
	}

	ui.stateMutex.Lock()
	ui.activeJobID = job.ID
	ui.stateMutex.Unlock()

	ui.progressBar.SetValue(0)
	ui.progressBar.Show()
	ui.cancelBtn.Show()
	ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyStatusDownloading))
	ui.showPopup(ui.messages.Resolve(locale.KeyDownloadStarted))
}

// onCancelClick requests cancellation of the job shown in the progress area
func (ui *RootUI) onCancelClick() {
	ui.stateMutex.Lock()
	jobID := ui.activeJobID
	ui.stateMutex.Unlock()
	if jobID == "" {
		return
	}

	if err := ui.runner.Cancel(jobID); err != nil {
		logging.GetLogger("ui").Warn().Err(err).Str("job", jobID).Msg("Cancel request rejected")
	}
}

// onJobUpdate handles job updates from the download runner. It runs on a
// worker goroutine, so all widget access goes through fyne.Do.
func (ui *RootUI) onJobUpdate(job *model.DownloadJob) {
	ui.stateMutex.Lock()
	isActive := job.ID == ui.activeJobID
	if isActive && job.Status.IsTerminal() {
		ui.activeJobID = ""
	}
	ui.stateMutex.Unlock()

	if job.Status == model.JobStatusSucceeded {
		ui.recordHistory(job)
	}
	if !isActive {
		return
	}

	fyne.Do(func() {
		ui.progressBar.SetValue(float64(job.Progress) / 100)

		switch job.Status {
		case model.JobStatusSucceeded:
			ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyDownloadCompleted))
			ui.cancelBtn.Hide()
			ui.sendCompletionNotification(job)
			ui.showToastNotification(job)
		case model.JobStatusFailed:
			ui.progressBar.Hide()
			ui.cancelBtn.Hide()
			if strings.Contains(job.LastError, "cancelled") {
				ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyDownloadCancelled))
			} else {
				ui.statusLabel.SetText(ui.messages.Resolve(locale.KeyDownloadFailed))
				ui.showPopup(ui.messages.Resolve(locale.KeyDownloadFailed) + ": " + job.LastError)
			}
		}
	})
}

// recordHistory appends a finished download to the history store
func (ui *RootUI) recordHistory(job *model.DownloadJob) {
	kind := model.MediaKindVideo
	if strings.HasSuffix(job.DestPath, model.MediaKindAudio.FileExtension()) {
		kind = model.MediaKindAudio
	}

	err := ui.historyStore.Append(model.HistoryRecord{
		URL:          job.URL,
		Title:        job.Title,
		OutputPath:   job.DestPath,
		Kind:         kind,
		DownloadedAt: time.Now(),
	})
	if err != nil {
		logging.GetLogger("ui").Warn().Err(err).Str("job", job.ID).Msg("Cannot record download in history")
	}
}

// onShowSettings shows the settings dialog. The dialog edits a copy so the
// published snapshot stays immutable until the save is confirmed.
func (ui *RootUI) onShowSettings() {
	draft := *ui.currentSettings()
	ShowSettingsDialog(ui.window, ui.settingsStore, &draft, ui.messages, func() {
		ui.applySettings(&draft)
		ui.messages.SetLanguage(draft.Language)
		ui.refreshUITexts()
		ui.createMenu()
		ui.showPopup(ui.messages.Resolve(locale.KeySettingsSaved))
	})
}

// onShowHistory shows the download history dialog
func (ui *RootUI) onShowHistory() {
	ShowHistoryDialog(ui.window, ui.historyStore, ui.messages)
}

// showPopup shows a transient message popup on the window canvas
func (ui *RootUI) showPopup(message string) {
	widget.ShowPopUp(widget.NewLabel(message), ui.window.Canvas())
}

// sendCompletionNotification sends a system notification for a finished
// download
func (ui *RootUI) sendCompletionNotification(job *model.DownloadJob) {
	ui.app.SendNotification(&fyne.Notification{
		Title:   ui.messages.Resolve(locale.KeyDownloadCompleted),
		Content: job.GetDisplayTitle(),
	})
}

// showToastNotification shows an in-app toast with an open-file action
func (ui *RootUI) showToastNotification(job *model.DownloadJob) {
	titleLabel := widget.NewLabel(ui.messages.Resolve(locale.KeyDownloadCompleted))
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	messageLabel := widget.NewLabel(job.GetDisplayTitle())
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	openBtn := widget.NewButton(ui.messages.Resolve(locale.KeyOpenFile), func() {
		if err := platform.OpenFileWithDefaultApp(job.DestPath); err != nil {
			ui.showPopup(ui.messages.Resolve(locale.KeyErrorOpeningFile) + ": " + err.Error())
		}
	})
	openBtn.Importance = widget.HighImportance

	revealBtn := widget.NewButton(IconFolder, func() {
		if err := platform.OpenFileInManager(job.DestPath); err != nil {
			ui.showPopup(ui.messages.Resolve(locale.KeyErrorOpeningFile) + ": " + err.Error())
		}
	})

	var toastPopup *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		if toastPopup != nil {
			toastPopup.Hide()
		}
	})
	closeBtn.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil, titleLabel, closeBtn)
	actions := container.NewHBox(openBtn, revealBtn)
	content := container.NewVBox(header, messageLabel, actions)

	toastPopup = widget.NewPopUp(content, ui.window.Canvas())

	// Position in top-right corner
	canvasSize := ui.window.Canvas().Size()
	toastSize := fyne.NewSize(ToastWidth, ToastHeight)
	toastPopup.Resize(toastSize)
	toastPopup.Move(fyne.NewPos(canvasSize.Width-toastSize.Width-ToastMargin, ToastMargin))
	toastPopup.Show()

	go func() {
		time.Sleep(ToastAutoHide)
		fyne.Do(func() {
			if toastPopup != nil {
				toastPopup.Hide()
			}
		})
	}()
}

// truncateRunes shortens long descriptions for the metadata card
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
